package motion

import "math"

// Facial deformation constants.
const (
	FacialSteps     = 6
	FacialAmplitude = 0.03
)

// Recognised emotions.
const (
	Happy     = "happy"
	Sad       = "sad"
	Angry     = "angry"
	Surprised = "surprised"
)

// Step holds progress on the last completed step boundary, which gives the
// held-pose look of stop motion.
func Step(progress float64, steps int) float64 {
	return math.Floor(progress*float64(steps)) / float64(steps)
}

// DeformFacial returns a copy of landmarks with the emotion applied at the
// given progress. Unknown emotions return an unchanged copy.
func DeformFacial(landmarks []Point, emotion string, intensity float64, progress float64) []Point {
	amplitude := intensity * FacialAmplitude
	s := math.Sin(Step(progress, FacialSteps) * math.Pi)

	out := clonePoints(landmarks)
	for i := range out {
		dx, dy := facialDelta(i, emotion, amplitude, s)
		out[i].X += dx
		out[i].Y += dy
	}

	return out
}

func facialDelta(index int, emotion string, amplitude, s float64) (dx, dy float64) {
	switch emotion {
	case Happy:
		if inRange(index, MouthStart, UpperLipEnd) {
			dy = -amplitude * s * 0.8
		}
		if inRange(index, LowerLipStart, LowerLipEnd) {
			dy = amplitude * s * 0.5
		}
		// Smile lines around the left eye.
		if inRange(index, EyeStart, LeftEyeEnd) {
			dx = amplitude * s * 0.3
		}

	case Sad:
		if inRange(index, MouthStart, MouthEnd) {
			dy = amplitude * s * 0.7
		}
		if inRange(index, BrowStart, BrowEnd) {
			side := -1.0
			if index < BrowSplit {
				side = 1.0
			}
			dy = -amplitude * s * 0.4
			dx = amplitude * s * 0.2 * side
		}

	case Angry:
		if inRange(index, BrowStart, BrowEnd) {
			side := 1.0
			if index < BrowSplit {
				side = -1.0
			}
			dy = amplitude * s * 0.5
			dx = amplitude * s * 0.3 * side
		}

	case Surprised:
		if inRange(index, EyeStart, EyeEnd) {
			// 42 is the only lower lid that gets pushed down.
			upper := index <= LeftEyeEnd || index >= 43
			if upper {
				dy = -amplitude * s
			} else {
				dy = amplitude * s
			}
		}
		if inRange(index, InnerMouthStart, MouthEnd) {
			dy = amplitude * s * 1.2
		}
	}

	return dx, dy
}
