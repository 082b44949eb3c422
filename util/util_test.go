package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionLut(t *testing.T) {
	assert.Nil(t, TransitionLut(0))
	assert.Nil(t, TransitionLut(-2))

	lut := TransitionLut(3)
	assert.Len(t, lut, 3)
	assert.InDelta(t, 0.125, lut[0], 1e-12)
	assert.InDelta(t, 0.5, lut[1], 1e-12)
	assert.InDelta(t, 0.875, lut[2], 1e-12)

	lut = TransitionLut(7)
	for i := 1; i < len(lut); i++ {
		assert.Greater(t, lut[i], lut[i-1])
	}
	assert.Greater(t, lut[0], 0.0)
	assert.Less(t, lut[len(lut)-1], 1.0)
}
