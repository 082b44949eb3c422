package preview

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/matt-g-everett/puppetx/motion"
	"github.com/matt-g-everett/puppetx/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSequence(t *testing.T) *stream.Sequence {
	t.Helper()
	points := make([]motion.Point, motion.NumFacialLandmarks)
	for i := range points {
		points[i] = motion.Point{X: 0.2 + float64(i%10)*0.06, Y: 0.2 + float64(i/10)*0.09}
	}
	seq, err := stream.GenerateFacialSequence(points, motion.Happy, 1, 1000)
	require.NoError(t, err)
	return seq
}

func TestContactSheet(t *testing.T) {
	seq := testSequence(t)
	img, err := ContactSheet(seq, 64, 3)
	require.NoError(t, err)

	// 8 frames in 3 columns need 3 rows.
	assert.Equal(t, 3*64, img.Bounds().Dx())
	assert.Equal(t, 3*64, img.Bounds().Dy())
	assert.Equal(t, gridLine, img.RGBAAt(0, 0))

	p := seq.Frames[0].Landmarks[0]
	got := img.RGBAAt(int(p.X*63), int(p.Y*63))
	assert.NotEqual(t, background, got)
	assert.NotEqual(t, color.RGBA{}, got)
}

func TestContactSheet_ClampsColumns(t *testing.T) {
	seq := testSequence(t)
	img, err := ContactSheet(seq, 16, 100)
	require.NoError(t, err)
	assert.Equal(t, 8*16, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestContactSheet_Errors(t *testing.T) {
	_, err := ContactSheet(&stream.Sequence{}, 64, 3)
	assert.Error(t, err)

	_, err = ContactSheet(testSequence(t), 4, 3)
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testSequence(t), 32, 4))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4*32, img.Bounds().Dx())
	assert.Equal(t, 2*32, img.Bounds().Dy())
}
