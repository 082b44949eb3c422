package motion

import "math"

// Body deformation constants.
const (
	BodySteps     = 8
	BodyAmplitude = 0.05
)

// Recognised movements.
const (
	WaveHand = "wave_hand"
	Jump     = "jump"
	Dance    = "dance"
)

// DeformBody returns a copy of points with the movement applied at the given
// progress. Unknown movements return an unchanged copy.
func DeformBody(points []Point, movement string, intensity float64, progress float64) []Point {
	amplitude := intensity * BodyAmplitude
	step := Step(progress, BodySteps)
	once := math.Sin(step * math.Pi)
	twice := math.Sin(step * math.Pi * 2)

	out := clonePoints(points)
	for i := range out {
		var dx, dy float64
		switch movement {
		case WaveHand:
			if i == RightElbow || i == RightWrist {
				dx = amplitude * twice * 2
				dy = -amplitude * twice * 1.5
			}
		case Jump:
			dy = -amplitude * once * 3
		case Dance:
			if i == RightElbow || i == RightWrist {
				dx = amplitude * twice * 1.5
			}
			if i == LeftElbow || i == LeftWrist {
				dx = -amplitude * twice * 1.5
			}
		}
		out[i].X += dx
		out[i].Y += dy
	}

	return out
}
