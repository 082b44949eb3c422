package util

import (
	"github.com/fogleman/ease"
)

// TransitionLut returns length eased blend weights strictly between 0 and 1,
// rising with ease.InOutQuad. The end points are left out because they equal
// the poses being blended.
func TransitionLut(length int) []float64 {
	if length <= 0 {
		return nil
	}

	increment := 1.0 / float64(length+1)
	lut := make([]float64, length)
	for i := range lut {
		lut[i] = ease.InOutQuad(float64(i+1) * increment)
	}
	return lut
}
