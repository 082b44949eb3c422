package stream

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/matt-g-everett/puppetx/motion"
	"github.com/matt-g-everett/puppetx/util"
	"github.com/rs/zerolog"
)

// Errors returned by Controller.Enqueue.
var (
	ErrQueueClosed = errors.New("controller is closed")
	ErrEmptyClip   = errors.New("clip has no frames")
)

// Clip outcomes reported in ClipEvents and to the Recorder.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventSkipped   = "skipped"
	EventStopped   = "stopped"
)

// Clip is a sequence waiting in, or playing from, the controller queue.
type Clip struct {
	ID       string        `json:"id"`
	Target   motion.Target `json:"target"`
	Sequence *Sequence     `json:"-"`
}

// ClipEvent reports a change in what the controller is playing.
type ClipEvent struct {
	ClipID string        `json:"clipId"`
	Target motion.Target `json:"target"`
	Kind   string        `json:"kind"`
	Event  string        `json:"event"`
	Frames int           `json:"frames"`
}

// A FrameSink is where the controller sends what it plays.
type FrameSink interface {
	SendFrame(clipID string, frame Frame) error
	SendEvent(event ClipEvent) error
}

// A Recorder counts controller activity.
type Recorder interface {
	IncFramesEmitted()
	IncClips(outcome string)
	SetQueueDepth(n int)
}

type nopRecorder struct{}

func (nopRecorder) IncFramesEmitted() {}
func (nopRecorder) IncClips(string) {}
func (nopRecorder) SetQueueDepth(int) {}

// ControllerStatus is a snapshot of the queue and the player.
type ControllerStatus struct {
	ClipID     string `json:"clipId,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Transition bool   `json:"transition"`
	QueueDepth int    `json:"queueDepth"`
	Player     Status `json:"player"`
}

// Controller plays queued clips back to back through one Player, blending
// from the last shown pose into each new clip.
type Controller struct {
	player        *Player
	sink          FrameSink
	recorder      Recorder
	log           zerolog.Logger
	transitionLut []float64

	mu         sync.Mutex
	queue      []*Clip
	current    *Clip
	transition bool
	lastFrame  *Frame
	closed     bool
}

// NewController creates an instance of a Controller. transitionFrames eased
// blend frames are played between consecutive clips; zero disables blending.
func NewController(player *Player, sink FrameSink, transitionFrames int, recorder Recorder,
	logger zerolog.Logger) *Controller {

	c := new(Controller)
	c.player = player
	c.sink = sink
	c.recorder = recorder
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	c.log = logger.With().Str("component", "controller").Logger()
	c.transitionLut = util.TransitionLut(transitionFrames)

	return c
}

// Enqueue adds a sequence to the back of the queue and returns its clip id.
// Playback starts at once if nothing else is playing.
func (c *Controller) Enqueue(target motion.Target, sequence *Sequence) (string, error) {
	if sequence.Len() == 0 {
		return "", ErrEmptyClip
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrQueueClosed
	}

	clip := &Clip{ID: uuid.NewString(), Target: target, Sequence: sequence}
	c.queue = append(c.queue, clip)
	c.log.Info().Str("clip", clip.ID).Str("kind", sequence.Kind).Int("queued", len(c.queue)).Msg("clip queued")

	if c.current == nil {
		c.advance()
	} else {
		c.recorder.SetQueueDepth(len(c.queue))
	}

	return clip.ID, nil
}

// Skip abandons the current clip and moves to the next one.
func (c *Controller) Skip() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return
	}
	c.player.Stop()
	c.finish(EventSkipped)
	c.advance()
}

// Stop ends the current clip and empties the queue.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop()
}

// Close stops playback and rejects further clips.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop()
	c.closed = true
}

// Pause toggles pause on the current clip and returns whether it is playing.
func (c *Controller) Pause() bool {
	return c.player.TogglePause()
}

// Status reports the current clip, queue depth and player progress.
func (c *Controller) Status() ControllerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := ControllerStatus{
		Transition: c.transition,
		QueueDepth: len(c.queue),
		Player:     c.player.Status(),
	}
	if c.current != nil {
		status.ClipID = c.current.ID
		status.Kind = c.current.Sequence.Kind
	}
	return status
}

func (c *Controller) stop() {
	if c.current != nil {
		c.player.Stop()
		c.finish(EventStopped)
	}
	c.queue = nil
	c.lastFrame = nil
	c.recorder.SetQueueDepth(0)
}

// advance starts the next queued clip. Callers hold mu.
func (c *Controller) advance() {
	if len(c.queue) == 0 {
		c.current = nil
		c.recorder.SetQueueDepth(0)
		return
	}

	clip := c.queue[0]
	c.queue = c.queue[1:]
	c.current = clip
	c.recorder.SetQueueDepth(len(c.queue))
	c.event(clip, EventStarted)

	if blend := c.blend(clip); blend != nil {
		c.transition = true
		c.player.Play(blend, c.observe(clip, true))
		return
	}

	c.transition = false
	c.player.Play(clip.Sequence, c.observe(clip, false))
}

// blend builds eased frames from the last pose shown to the first pose of
// clip, or returns nil when there is nothing to blend from.
func (c *Controller) blend(clip *Clip) *Sequence {
	if c.lastFrame == nil || len(c.transitionLut) == 0 {
		return nil
	}

	first := &clip.Sequence.Frames[0]
	frameMs := FrameDuration.Milliseconds()
	seq := &Sequence{FPS: TargetFPS, Kind: "transition"}
	for i, weight := range c.transitionLut {
		f, err := c.lastFrame.InterpolateFrame(first, weight)
		if err != nil {
			// Different rigs cannot be blended; cut straight to the clip.
			return nil
		}
		f.FrameNumber = i
		f.TimestampMs = int64(i) * frameMs
		seq.Frames = append(seq.Frames, *f)
	}
	seq.DurationMs = int64(len(seq.Frames)) * frameMs

	return seq
}

func (c *Controller) observe(clip *Clip, transition bool) Observer {
	return Callbacks{
		Frame: func(frame Frame) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.current != clip || c.transition != transition {
				return
			}
			c.lastFrame = &frame
			c.recorder.IncFramesEmitted()
			if err := c.sink.SendFrame(clip.ID, frame); err != nil {
				c.log.Warn().Err(err).Str("clip", clip.ID).Msg("failed to send frame")
			}
		},
		Complete: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.current != clip || c.transition != transition {
				return
			}
			if transition {
				c.transition = false
				c.player.Play(clip.Sequence, c.observe(clip, false))
				return
			}
			c.finish(EventCompleted)
			c.advance()
		},
	}
}

// finish reports the end of the current clip. Callers hold mu.
func (c *Controller) finish(outcome string) {
	clip := c.current
	c.current = nil
	c.transition = false
	c.recorder.IncClips(outcome)
	c.event(clip, outcome)
}

func (c *Controller) event(clip *Clip, name string) {
	c.log.Info().Str("clip", clip.ID).Str("kind", clip.Sequence.Kind).Str("event", name).Msg("clip")
	err := c.sink.SendEvent(ClipEvent{
		ClipID: clip.ID,
		Target: clip.Target,
		Kind:   clip.Sequence.Kind,
		Event:  name,
		Frames: len(clip.Sequence.Frames),
	})
	if err != nil {
		c.log.Warn().Err(err).Str("clip", clip.ID).Msg("failed to send clip event")
	}
}
