package motion

import (
	"errors"
	"fmt"
)

// Target selects which rig a preset deforms.
type Target string

// Rig targets.
const (
	Face Target = "face"
	Body Target = "body"
)

// ErrUnknownTarget is returned for targets other than face and body.
var ErrUnknownTarget = errors.New("unknown target")

// ParseTarget converts a string to a Target.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case Face, Body:
		return Target(s), nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownTarget, s)
}

// Default playback lengths.
const (
	DefaultFacialDurationMs = 2000
	DefaultBodyDurationMs   = 3000
)

// Preset describes an animation offered to users.
type Preset struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Target     Target  `json:"target"`
	Intensity  float64 `json:"intensity"`
	DurationMs int64   `json:"durationMs"`
	// Animated is false for presets that have no deformation and play as
	// jitter only.
	Animated bool `json:"animated"`
}

// Catalog lists every preset in display order.
var Catalog = []Preset{
	{Happy, "Happy", Face, 0.8, DefaultFacialDurationMs, true},
	{Sad, "Sad", Face, 0.7, DefaultFacialDurationMs, true},
	{Surprised, "Surprised", Face, 0.9, DefaultFacialDurationMs, true},
	{Angry, "Angry", Face, 0.8, DefaultFacialDurationMs, true},
	{"sleepy", "Sleepy", Face, 0.6, DefaultFacialDurationMs, false},
	{"wink", "Wink", Face, 0.7, DefaultFacialDurationMs, false},
	{"laughing", "Laughing", Face, 1.0, DefaultFacialDurationMs, false},
	{"love", "In love", Face, 0.8, DefaultFacialDurationMs, false},
	{Jump, "Jump", Body, 1.0, DefaultBodyDurationMs, true},
	{WaveHand, "Wave", Body, 1.0, DefaultBodyDurationMs, true},
	{Dance, "Dance", Body, 1.0, DefaultBodyDurationMs, true},
	{"march", "March", Body, 1.0, DefaultBodyDurationMs, false},
	{"spin", "Spin arms", Body, 1.0, DefaultBodyDurationMs, false},
}

// Lookup finds a preset by target and id.
func Lookup(target Target, id string) (Preset, bool) {
	for _, p := range Catalog {
		if p.Target == target && p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Deform applies the facial or body deformation selected by target.
func Deform(target Target, points []Point, id string, intensity float64, progress float64) []Point {
	if target == Body {
		return DeformBody(points, id, intensity, progress)
	}
	return DeformFacial(points, id, intensity, progress)
}
