package motion

import "math"

// JitterAmplitude bounds the per-coordinate jitter offset.
const JitterAmplitude = 0.001

// Jitter returns a copy of points nudged by a small deterministic wobble
// keyed on the frame and point index. The same inputs always produce the
// same output.
func Jitter(points []Point, frameIndex int) []Point {
	out := make([]Point, len(points))
	f := float64(frameIndex)
	for i, p := range points {
		n := float64(i)
		out[i] = Point{
			X: p.X + math.Sin(f*0.7+n*0.3)*JitterAmplitude,
			Y: p.Y + math.Cos(f*0.5+n*0.4)*JitterAmplitude,
		}
	}
	return out
}
