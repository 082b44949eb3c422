package stream

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PlayState is the lifecycle position of a Player.
type PlayState int

// Player states.
const (
	Idle PlayState = iota
	Playing
	Paused
	Completed
	Stopped
)

func (s PlayState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	}
	return "idle"
}

// Status is a snapshot of playback progress.
type Status struct {
	IsPlaying    bool    `json:"isPlaying"`
	State        string  `json:"state"`
	CurrentFrame int     `json:"currentFrame"`
	TotalFrames  int     `json:"totalFrames"`
	Progress     float64 `json:"progress"`
}

// Player emits the frames of one Sequence at the stop-motion rate. Frames
// are released by elapsed time, not by tick count, so any host tick rate
// faster than TargetFPS yields the same output.
type Player struct {
	scheduler Scheduler
	log       zerolog.Logger

	mu            sync.Mutex
	sequence      *Sequence
	observer      Observer
	state         PlayState
	frameIndex    int
	lastFrameTime time.Time
	session       uint64
	tick          TickID
	ticking       bool
}

// NewPlayer creates a Player driven by scheduler.
func NewPlayer(scheduler Scheduler, logger zerolog.Logger) *Player {
	p := new(Player)
	p.scheduler = scheduler
	p.log = logger.With().Str("component", "player").Logger()
	return p
}

// Play starts sequence from its first frame, replacing any session in
// progress. The replaced session gets no further frames and no OnComplete.
// An empty sequence completes immediately.
func (p *Player) Play(sequence *Sequence, observer Observer) {
	p.start(sequence, observer)
}

// PlayChan plays sequence and returns its frames on a channel that is closed
// when the session completes, is stopped, or is replaced. Cancelling ctx
// stops the session.
func (p *Player) PlayChan(ctx context.Context, sequence *Sequence) <-chan Frame {
	obs := newChanObserver(sequence.Len())
	session := p.start(sequence, obs)

	go func() {
		select {
		case <-ctx.Done():
			p.stopSession(session)
		case <-obs.done:
		}
	}()

	return obs.ch
}

func (p *Player) start(sequence *Sequence, observer Observer) uint64 {
	if observer == nil {
		observer = Callbacks{}
	}

	p.mu.Lock()
	replaced := p.endSession()
	p.session++
	session := p.session
	p.sequence = sequence
	p.observer = observer
	p.frameIndex = 0

	if sequence.Len() == 0 {
		p.state = Completed
		p.mu.Unlock()

		notifyCancel(replaced)
		p.log.Info().Msg("empty sequence, nothing to play")
		observer.OnComplete()
		return session
	}

	p.state = Playing
	p.lastFrameTime = p.scheduler.Now()
	p.schedule()
	p.mu.Unlock()

	notifyCancel(replaced)
	p.log.Info().
		Str("kind", sequence.Kind).
		Int("frames", len(sequence.Frames)).
		Msg("playback started")
	return session
}

// Stop ends playback without calling OnComplete. It is safe to call in any
// state and more than once.
func (p *Player) Stop() {
	p.mu.Lock()
	stopped := p.endSession()
	p.mu.Unlock()

	if stopped != nil {
		p.log.Info().Msg("playback stopped")
	}
	notifyCancel(stopped)
}

func (p *Player) stopSession(session uint64) {
	p.mu.Lock()
	if p.session != session {
		p.mu.Unlock()
		return
	}
	stopped := p.endSession()
	p.mu.Unlock()

	notifyCancel(stopped)
}

// TogglePause pauses a playing session or resumes a paused one and returns
// whether the player is now playing. Other states are left untouched.
func (p *Player) TogglePause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Playing:
		p.state = Paused
		p.cancelTick()
		p.log.Info().Int("frame", p.frameIndex).Msg("playback paused")
		return false
	case Paused:
		p.state = Playing
		// Restart the frame clock so the pause is not caught up in a burst.
		p.lastFrameTime = p.scheduler.Now()
		p.schedule()
		p.log.Info().Int("frame", p.frameIndex).Msg("playback resumed")
		return true
	}

	return false
}

// Status reports the current playback position.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := Status{
		IsPlaying:    p.state == Playing,
		State:        p.state.String(),
		CurrentFrame: p.frameIndex,
		TotalFrames:  p.sequence.Len(),
	}
	if status.TotalFrames > 0 {
		status.Progress = float64(p.frameIndex) / float64(status.TotalFrames)
	}

	return status
}

func (p *Player) onTick(session uint64, now time.Time) {
	p.mu.Lock()
	if session != p.session || p.state != Playing {
		p.mu.Unlock()
		return
	}
	p.ticking = false

	if now.Sub(p.lastFrameTime) < FrameDuration {
		p.schedule()
		p.mu.Unlock()
		return
	}

	frame := p.sequence.Frames[p.frameIndex]
	p.frameIndex++
	p.lastFrameTime = now
	total := len(p.sequence.Frames)
	done := p.frameIndex >= total
	if done {
		p.state = Completed
	} else {
		p.schedule()
	}
	observer := p.observer
	p.mu.Unlock()

	p.log.Debug().Int("frame", frame.FrameNumber+1).Int("total", total).Msg("frame")
	observer.OnFrame(frame)
	if done {
		p.log.Info().Int("frames", total).Msg("playback complete")
		observer.OnComplete()
	}
}

// schedule requests the next tick for the current session. Callers hold mu.
func (p *Player) schedule() {
	session := p.session
	p.tick = p.scheduler.RequestTick(func(now time.Time) {
		p.onTick(session, now)
	})
	p.ticking = true
}

// cancelTick withdraws the pending tick. Callers hold mu.
func (p *Player) cancelTick() {
	if p.ticking {
		p.scheduler.CancelTick(p.tick)
		p.ticking = false
	}
}

// endSession stops an active session and returns its observer. Callers hold
// mu and notify the observer after releasing it.
func (p *Player) endSession() Observer {
	if p.state != Playing && p.state != Paused {
		return nil
	}
	p.cancelTick()
	p.state = Stopped
	return p.observer
}

func notifyCancel(observer Observer) {
	if c, ok := observer.(Canceller); ok {
		c.OnCancel()
	}
}
