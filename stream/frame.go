package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/matt-g-everett/puppetx/motion"
)

// Frame is one held pose of a stop-motion sequence.
type Frame struct {
	Landmarks   []motion.Point `json:"landmarks"`
	TimestampMs int64          `json:"timestampMs"`
	FrameNumber int            `json:"frameNumber"`
}

// Sequence is a fixed-rate run of frames.
type Sequence struct {
	Frames     []Frame `json:"frames"`
	DurationMs int64   `json:"durationMs"`
	FPS        int     `json:"fps"`
	Kind       string  `json:"kind,omitempty"`
}

// Len returns the number of frames in the sequence. A nil sequence is empty.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

var (
	errFrameSize   = errors.New("stream: frames have different landmark counts")
	errFrameEncode = errors.New("stream: frame does not fit the wire format")
)

const frameHeaderSize = 10

// InterpolateFrame blends f towards f2 by transitionPoint in [0,1].
func (f *Frame) InterpolateFrame(f2 *Frame, transitionPoint float64) (*Frame, error) {
	if len(f.Landmarks) != len(f2.Landmarks) {
		return nil, errFrameSize
	}

	out := new(Frame)
	out.Landmarks = make([]motion.Point, len(f.Landmarks))
	for i, p := range f.Landmarks {
		q := f2.Landmarks[i]
		out.Landmarks[i] = motion.Point{
			X: p.X + (q.X-p.X)*transitionPoint,
			Y: p.Y + (q.Y-p.Y)*transitionPoint,
		}
	}

	return out, nil
}

// MarshalBinary converts a Frame into binary data: frame number, timestamp,
// point count, then little-endian float32 x/y pairs.
// Frames with more than 65535 points, or a frame number or timestamp outside
// uint32, are rejected.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	if len(f.Landmarks) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d points", errFrameEncode, len(f.Landmarks))
	}
	if f.TimestampMs < 0 || f.TimestampMs > math.MaxUint32 {
		return nil, fmt.Errorf("%w: timestamp %dms", errFrameEncode, f.TimestampMs)
	}
	if f.FrameNumber < 0 || int64(f.FrameNumber) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: frame number %d", errFrameEncode, f.FrameNumber)
	}

	data = make([]byte, frameHeaderSize, frameHeaderSize+len(f.Landmarks)*8)
	binary.LittleEndian.PutUint32(data[0:], uint32(f.FrameNumber))
	binary.LittleEndian.PutUint32(data[4:], uint32(f.TimestampMs))
	binary.LittleEndian.PutUint16(data[8:], uint16(len(f.Landmarks)))
	for _, p := range f.Landmarks {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(p.X)))
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(p.Y)))
	}

	return data, nil
}

// UnmarshalBinary decodes data written by MarshalBinary.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < frameHeaderSize {
		return errors.New("stream: short frame header")
	}
	count := int(binary.LittleEndian.Uint16(data[8:]))
	if len(data) != frameHeaderSize+count*8 {
		return errors.New("stream: frame length does not match point count")
	}

	f.FrameNumber = int(binary.LittleEndian.Uint32(data[0:]))
	f.TimestampMs = int64(binary.LittleEndian.Uint32(data[4:]))
	f.Landmarks = make([]motion.Point, count)
	body := data[frameHeaderSize:]
	for i := range f.Landmarks {
		x := math.Float32frombits(binary.LittleEndian.Uint32(body[i*8:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(body[i*8+4:]))
		f.Landmarks[i] = motion.Point{X: float64(x), Y: float64(y)}
	}

	return nil
}
