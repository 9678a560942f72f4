// Package rawio implements the development raw container: a fixed
// little-endian header carrying sensor geometry and calibration,
// followed by the mosaic samples.
//
// Layout (all little-endian):
//
//	offset  size  field
//	0       4     magic "RPRW"
//	4       2     version (currently 1)
//	6       2     reserved, zero
//	8       4     width
//	12      4     height
//	16      16    white-balance coefficients, 4 x f32
//	32      8     black levels, 4 x u16
//	40      8     white levels, 4 x u16
//	48      48    camera-to-XYZ matrix, row-major 3x4 f32
//	96      -     samples, width*height x u16
//
// Bits per sample are not stored; they derive from the white level on
// decode.
package rawio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/visioneerlab/rawpipe"
)

const (
	magic      = "RPRW"
	version    = 1
	headerSize = 96
)

// Marshal serializes a frame into the container format.
func Marshal(f *rawpipe.RawFrame) ([]byte, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("rawio: invalid dimensions %dx%d", f.Width, f.Height)
	}
	if len(f.Samples) != f.Width*f.Height {
		return nil, fmt.Errorf("rawio: %d samples for %dx%d frame", len(f.Samples), f.Width, f.Height)
	}

	buf := make([]byte, headerSize+len(f.Samples)*2)
	le := binary.LittleEndian
	copy(buf[0:4], magic)
	le.PutUint16(buf[4:6], version)
	le.PutUint32(buf[8:12], uint32(f.Width))
	le.PutUint32(buf[12:16], uint32(f.Height))
	for i, v := range f.WBCoeffs {
		le.PutUint32(buf[16+i*4:], math.Float32bits(v))
	}
	for i, v := range f.BlackLevels {
		le.PutUint16(buf[32+i*2:], v)
	}
	for i, v := range f.WhiteLevels {
		le.PutUint16(buf[40+i*2:], v)
	}
	off := 48
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			le.PutUint32(buf[off:], math.Float32bits(f.CamToXYZ[r][c]))
			off += 4
		}
	}
	for i, s := range f.Samples {
		le.PutUint16(buf[headerSize+i*2:], s)
	}
	return buf, nil
}

// Unmarshal parses a container. Structural problems (short data, wrong
// magic, unsupported version, payload size mismatch) all report decode
// errors; calibration plausibility is the frame's own Validate concern.
func Unmarshal(data []byte) (*rawpipe.RawFrame, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d for header", rawpipe.ErrDecode, len(data), headerSize)
	}
	if string(data[0:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", rawpipe.ErrDecode, data[0:4])
	}
	le := binary.LittleEndian
	if v := le.Uint16(data[4:6]); v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", rawpipe.ErrDecode, v)
	}

	f := &rawpipe.RawFrame{
		Width:  int(le.Uint32(data[8:12])),
		Height: int(le.Uint32(data[12:16])),
	}
	for i := range f.WBCoeffs {
		f.WBCoeffs[i] = math.Float32frombits(le.Uint32(data[16+i*4:]))
	}
	for i := range f.BlackLevels {
		f.BlackLevels[i] = le.Uint16(data[32+i*2:])
	}
	for i := range f.WhiteLevels {
		f.WhiteLevels[i] = le.Uint16(data[40+i*2:])
	}
	off := 48
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			f.CamToXYZ[r][c] = math.Float32frombits(le.Uint32(data[off:]))
			off += 4
		}
	}

	// Cap dimensions so the payload size below cannot overflow. Zero
	// dimensions stay decodable; rejecting them is the validation
	// stage's job.
	if f.Width > math.MaxInt32 || f.Height > math.MaxInt32 {
		return nil, fmt.Errorf("%w: implausible dimensions %dx%d", rawpipe.ErrDecode, f.Width, f.Height)
	}
	want := headerSize + f.Width*f.Height*2
	if len(data) != want {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d frame, want %d",
			rawpipe.ErrDecode, len(data), f.Width, f.Height, want)
	}
	f.Samples = make([]uint16, f.Width*f.Height)
	for i := range f.Samples {
		f.Samples[i] = le.Uint16(data[headerSize+i*2:])
	}
	f.BitsPerSample = rawpipe.DeriveBitsPerSample(f.WhiteLevels)
	return f, nil
}

// Decoder adapts Unmarshal to the rawpipe.Decoder interface.
type Decoder struct{}

var _ rawpipe.Decoder = Decoder{}

// Decode implements rawpipe.Decoder.
func (Decoder) Decode(data []byte) (*rawpipe.RawFrame, error) {
	return Unmarshal(data)
}
