package stream

import "sync"

// An Observer receives the frames of a playback session.
type Observer interface {
	OnFrame(frame Frame)
	OnComplete()
}

// A Canceller is an Observer that wants to know when its session ends
// without completing, either stopped or replaced by a newer Play.
type Canceller interface {
	OnCancel()
}

// Callbacks adapts plain functions to an Observer. Nil fields are skipped.
type Callbacks struct {
	Frame    func(frame Frame)
	Complete func()
	Cancel   func()
}

// OnFrame calls c.Frame.
func (c Callbacks) OnFrame(frame Frame) {
	if c.Frame != nil {
		c.Frame(frame)
	}
}

// OnComplete calls c.Complete.
func (c Callbacks) OnComplete() {
	if c.Complete != nil {
		c.Complete()
	}
}

// OnCancel calls c.Cancel.
func (c Callbacks) OnCancel() {
	if c.Cancel != nil {
		c.Cancel()
	}
}

// chanObserver forwards frames into a channel sized to hold the whole
// sequence, so sends never block the tick.
type chanObserver struct {
	mu     sync.Mutex
	ch     chan Frame
	done   chan struct{}
	closed bool
}

func newChanObserver(size int) *chanObserver {
	return &chanObserver{ch: make(chan Frame, size), done: make(chan struct{})}
}

func (o *chanObserver) OnFrame(frame Frame) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.ch <- frame
	}
}

func (o *chanObserver) OnComplete() {
	o.finish()
}

func (o *chanObserver) OnCancel() {
	o.finish()
}

func (o *chanObserver) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
		close(o.done)
	}
}
