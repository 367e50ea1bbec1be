package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Size is the fixed wire length of one TSS frame.
const Size = 12

var ErrInvalidFrame = errors.New("frame: invalid frame")

// Frame is one decoded TSS message.
//
// Wire layout, big-endian, no padding:
//
//	0  uint32  timestamp (seconds)
//	4  uint32  command id
//	8  float32 value
type Frame struct {
	Timestamp uint32
	CommandID uint32
	Value     float32
}

func Encode(timestamp, commandID uint32, value float32) []byte {
	buf := make([]byte, Size)
	binary.BigEndian.PutUint32(buf[0:4], timestamp)
	binary.BigEndian.PutUint32(buf[4:8], commandID)
	binary.BigEndian.PutUint32(buf[8:12], math.Float32bits(value))
	return buf
}

// Decode reads the first Size bytes of b. Trailing bytes are ignored.
func Decode(b []byte) (Frame, error) {
	if len(b) < Size {
		return Frame{}, fmt.Errorf("%w: length %d < %d", ErrInvalidFrame, len(b), Size)
	}
	return Frame{
		Timestamp: binary.BigEndian.Uint32(b[0:4]),
		CommandID: binary.BigEndian.Uint32(b[4:8]),
		Value:     math.Float32frombits(binary.BigEndian.Uint32(b[8:12])),
	}, nil
}

func (f Frame) Bytes() []byte {
	return Encode(f.Timestamp, f.CommandID, f.Value)
}

// ReadFrame reads one frame from a byte stream. A clean EOF before the first
// byte is returned as io.EOF; a partial frame is ErrInvalidFrame.
func ReadFrame(r io.Reader) (Frame, error) {
	var buf [Size]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, fmt.Errorf("%w: short read %d bytes", ErrInvalidFrame, n)
		}
		return Frame{}, err
	}
	return Decode(buf[:])
}

func WriteFrame(w io.Writer, f Frame) error {
	_, err := w.Write(f.Bytes())
	return err
}
