package stream

import (
	"context"
	"sync"
	"time"
)

// TickFunc is invoked by a Scheduler on a host tick.
type TickFunc func(now time.Time)

// TickID identifies a pending tick request.
type TickID uint64

// A Scheduler is the host's tick primitive and the player's only clock.
// RequestTick runs fn once, on the next host tick.
type Scheduler interface {
	Now() time.Time
	RequestTick(fn TickFunc) TickID
	CancelTick(id TickID)
}

// tickQueue holds the requests waiting for the next tick.
type tickQueue struct {
	mu      sync.Mutex
	nextID  TickID
	pending map[TickID]TickFunc
	order   []TickID
}

func (q *tickQueue) add(fn TickFunc) TickID {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == nil {
		q.pending = make(map[TickID]TickFunc)
	}
	q.nextID++
	q.pending[q.nextID] = fn
	q.order = append(q.order, q.nextID)
	return q.nextID
}

func (q *tickQueue) cancel(id TickID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
}

func (q *tickQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// take removes and returns everything requested so far, in request order.
// Requests made while the batch runs wait for the following tick.
func (q *tickQueue) take() []TickFunc {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := make([]TickFunc, 0, len(q.pending))
	for _, id := range q.order {
		if fn, ok := q.pending[id]; ok {
			batch = append(batch, fn)
			delete(q.pending, id)
		}
	}
	q.order = q.order[:0]
	return batch
}

// TickerScheduler drives ticks from a time.Ticker at a fixed host rate, the
// server-side stand-in for a display refresh callback.
type TickerScheduler struct {
	queue    tickQueue
	interval time.Duration
}

// DefaultHostRate is the tick rate used when none is configured.
const DefaultHostRate = 60.0

// NewTickerScheduler creates a TickerScheduler ticking rateHz times a second.
func NewTickerScheduler(rateHz float64) *TickerScheduler {
	if rateHz <= 0 {
		rateHz = DefaultHostRate
	}
	s := new(TickerScheduler)
	s.interval = time.Duration(float64(time.Second) / rateHz)
	return s
}

// Now returns the wall clock.
func (s *TickerScheduler) Now() time.Time {
	return time.Now()
}

// RequestTick queues fn for the next tick.
func (s *TickerScheduler) RequestTick(fn TickFunc) TickID {
	return s.queue.add(fn)
}

// CancelTick drops a queued request. Unknown ids are ignored.
func (s *TickerScheduler) CancelTick(id TickID) {
	s.queue.cancel(id)
}

// Run ticks until ctx is cancelled. All tick functions run on the calling
// goroutine.
func (s *TickerScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, fn := range s.queue.take() {
				fn(now)
			}
		}
	}
}

// ManualScheduler is a Scheduler whose clock only moves when told to. It
// makes playback deterministic in tests and offline renders.
type ManualScheduler struct {
	queue tickQueue
	mu    sync.Mutex
	now   time.Time
}

// NewManualScheduler creates a ManualScheduler whose clock starts at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	s := new(ManualScheduler)
	s.now = start
	return s
}

// Now returns the simulated time.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// RequestTick queues fn for the next Advance.
func (s *ManualScheduler) RequestTick(fn TickFunc) TickID {
	return s.queue.add(fn)
}

// CancelTick drops a queued request.
func (s *ManualScheduler) CancelTick(id TickID) {
	s.queue.cancel(id)
}

// Pending reports how many tick requests are queued.
func (s *ManualScheduler) Pending() int {
	return s.queue.len()
}

// Advance moves the clock forward by d and runs one host tick.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	now := s.now
	s.mu.Unlock()

	for _, fn := range s.queue.take() {
		fn(now)
	}
}

// Drain advances by step until nothing is queued or maxTicks is reached, and
// returns the number of ticks run.
func (s *ManualScheduler) Drain(step time.Duration, maxTicks int) int {
	ticks := 0
	for ticks < maxTicks && s.Pending() > 0 {
		s.Advance(step)
		ticks++
	}
	return ticks
}
