package stream

import (
	"errors"
	"fmt"

	"github.com/matt-g-everett/puppetx/motion"
)

// Limits on a single request.
const (
	MaxDurationMs = 60000
	MaxLandmarks  = 4096
)

// ErrRequestTooLarge is returned for requests over MaxDurationMs or
// MaxLandmarks.
var ErrRequestTooLarge = errors.New("request too large")

// Request asks for one animation. Intensity and DurationMs fall back to the
// catalog preset, or to the target's defaults for ids outside the catalog.
type Request struct {
	Target     motion.Target  `json:"target"`
	ID         string         `json:"id"`
	Intensity  *float64       `json:"intensity,omitempty"`
	DurationMs *int64         `json:"durationMs,omitempty"`
	Landmarks  []motion.Point `json:"landmarks"`
}

// Generate resolves defaults and builds the sequence.
func (r *Request) Generate() (*Sequence, error) {
	target, err := motion.ParseTarget(string(r.Target))
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, fmt.Errorf("request for %s has no animation id", target)
	}

	intensity := 1.0
	durationMs := int64(motion.DefaultFacialDurationMs)
	if target == motion.Body {
		durationMs = motion.DefaultBodyDurationMs
	}
	if preset, ok := motion.Lookup(target, r.ID); ok {
		intensity = preset.Intensity
		durationMs = preset.DurationMs
	}
	if r.Intensity != nil {
		intensity = *r.Intensity
	}
	if r.DurationMs != nil {
		durationMs = *r.DurationMs
	}
	if durationMs > MaxDurationMs {
		return nil, fmt.Errorf("%w: duration %dms is over %dms", ErrRequestTooLarge, durationMs, MaxDurationMs)
	}
	if len(r.Landmarks) > MaxLandmarks {
		return nil, fmt.Errorf("%w: %d landmarks is over %d", ErrRequestTooLarge, len(r.Landmarks), MaxLandmarks)
	}
	return Generate(target, r.Landmarks, r.ID, intensity, durationMs)
}
