package motion

// Point is a landmark location in normalised image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Facial landmark ranges in the 68-point convention.
const (
	BrowStart          = 17
	BrowEnd            = 26
	BrowSplit          = 22
	NoseStart          = 27
	NoseEnd            = 35
	EyeStart           = 36
	EyeEnd             = 47
	LeftEyeEnd         = 41
	MouthStart         = 48
	MouthEnd           = 67
	UpperLipEnd        = 54
	LowerLipStart      = 55
	LowerLipEnd        = 59
	InnerMouthStart    = 60
	NumFacialLandmarks = 68
)

// Body pose indices that the movements drive.
const (
	LeftElbow  = 7
	LeftWrist  = 8
	RightElbow = 9
	RightWrist = 10
)

// Region names the part of the face a facial landmark belongs to.
func Region(index int) string {
	switch {
	case index < BrowStart:
		return "jaw"
	case index <= BrowEnd:
		return "brow"
	case index <= NoseEnd:
		return "nose"
	case index <= EyeEnd:
		return "eye"
	case index <= MouthEnd:
		return "mouth"
	}
	return "other"
}

func inRange(index, lo, hi int) bool {
	return index >= lo && index <= hi
}

func clonePoints(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	return out
}
