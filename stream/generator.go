package stream

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/matt-g-everett/puppetx/motion"
)

// TargetFPS is the stop-motion rate every sequence is sampled at.
const TargetFPS = 8

// FrameDuration is the time each frame is held on screen.
const FrameDuration = time.Second / TargetFPS

// ErrNoLandmarks is returned when generation is asked to animate nothing.
var ErrNoLandmarks = errors.New("no landmarks to animate")

type deformFunc func(points []motion.Point, progress float64) []motion.Point

// FrameCount returns how many frames a sequence of durationMs holds. It is
// never less than one.
func FrameCount(durationMs int64) int {
	n := int(math.Floor(float64(durationMs) / 1000 * TargetFPS))
	if n < 1 {
		return 1
	}
	return n
}

// GenerateFacialSequence samples an emotion over durationMs.
func GenerateFacialSequence(landmarks []motion.Point, emotion string, intensity float64, durationMs int64) (*Sequence, error) {
	seq, err := generate(landmarks, emotion, durationMs, func(points []motion.Point, progress float64) []motion.Point {
		return motion.DeformFacial(points, emotion, intensity, progress)
	})
	if err != nil {
		return nil, fmt.Errorf("facial sequence %q: %w", emotion, err)
	}
	return seq, nil
}

// GenerateBodySequence samples a movement over durationMs.
func GenerateBodySequence(points []motion.Point, movement string, intensity float64, durationMs int64) (*Sequence, error) {
	seq, err := generate(points, movement, durationMs, func(points []motion.Point, progress float64) []motion.Point {
		return motion.DeformBody(points, movement, intensity, progress)
	})
	if err != nil {
		return nil, fmt.Errorf("body sequence %q: %w", movement, err)
	}
	return seq, nil
}

// Generate dispatches to the facial or body generator.
func Generate(target motion.Target, points []motion.Point, id string, intensity float64, durationMs int64) (*Sequence, error) {
	if target == motion.Body {
		return GenerateBodySequence(points, id, intensity, durationMs)
	}
	return GenerateFacialSequence(points, id, intensity, durationMs)
}

func generate(points []motion.Point, kind string, durationMs int64, deform deformFunc) (*Sequence, error) {
	if len(points) == 0 {
		return nil, ErrNoLandmarks
	}

	totalFrames := FrameCount(durationMs)
	frameMs := FrameDuration.Milliseconds()
	seq := &Sequence{
		Frames:     make([]Frame, totalFrames),
		DurationMs: durationMs,
		FPS:        TargetFPS,
		Kind:       kind,
	}

	for i := 0; i < totalFrames; i++ {
		progress := 0.0
		if totalFrames > 1 {
			progress = float64(i) / float64(totalFrames-1)
		}

		seq.Frames[i] = Frame{
			Landmarks:   motion.Jitter(deform(points, progress), i),
			TimestampMs: int64(i) * frameMs,
			FrameNumber: i,
		}
	}

	return seq, nil
}
