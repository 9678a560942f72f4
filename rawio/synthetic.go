package rawio

import "github.com/visioneerlab/rawpipe"

// SyntheticFrame builds a deterministic frame for tests and examples: a
// diagonal ramp spanning black to white under 14-bit daylight-ish
// calibration. The same dimensions always produce the same frame.
func SyntheticFrame(width, height int) *rawpipe.RawFrame {
	f := &rawpipe.RawFrame{
		Width:       width,
		Height:      height,
		Samples:     make([]uint16, width*height),
		WBCoeffs:    [4]float32{2.0, 1.0, 1.5, 0},
		BlackLevels: [4]uint16{512, 512, 512, 512},
		WhiteLevels: [4]uint16{16383, 16383, 16383, 16383},
		CamToXYZ: [3][4]float32{
			{0.4124, 0.3576, 0.1805, 0},
			{0.2126, 0.7152, 0.0722, 0},
			{0.0193, 0.1192, 0.9505, 0},
		},
	}
	f.BitsPerSample = rawpipe.DeriveBitsPerSample(f.WhiteLevels)

	span := int(f.WhiteLevels[0]) - int(f.BlackLevels[0])
	denom := width + height - 2
	if denom < 1 {
		denom = 1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := int(f.BlackLevels[0]) + span*(x+y)/denom
			f.Samples[y*width+x] = uint16(v)
		}
	}
	return f
}
