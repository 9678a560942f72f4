package rawpipe

import (
	"fmt"
	"math/bits"
)

// RawFrame is one decoded sensor capture: a single-channel Bayer mosaic in
// the fixed RGGB phase plus the per-capture calibration needed to develop
// it. The decoder collaborator produces it; rawpipe treats it as immutable
// from then on.
//
// Calibration arrays are channel-ordered R, G, B plus a spare fourth entry
// (second green on four-channel sensors). The pipeline consumes indices
// 0..2; the spare entry is carried through untouched.
type RawFrame struct {
	Width  int
	Height int

	// Samples holds Width*Height values, row-major, one per Bayer cell:
	// even rows alternate R,G starting at R; odd rows alternate G,B.
	Samples []uint16

	// BitsPerSample is the effective sensor bit depth, derived from the
	// white level (see DeriveBitsPerSample). Always 16 on RgbFrame output.
	BitsPerSample int

	// WBCoeffs are the white-balance gains (R, G, B, spare). They are
	// green-normalized before use; WBCoeffs[1] must be nonzero.
	WBCoeffs [4]float32

	// BlackLevels and WhiteLevels are the per-channel sensor floor and
	// ceiling in raw units. WhiteLevels[c] must exceed BlackLevels[c].
	BlackLevels [4]uint16
	WhiteLevels [4]uint16

	// CamToXYZ maps sensor-referred RGB to CIE XYZ: a row-major 3x4
	// matrix, 3x3 linear part plus one offset column.
	CamToXYZ [3][4]float32
}

// RgbFrame is the developed result: interleaved 16-bit R,G,B triplets,
// one per source Bayer cell. Produced by exactly one backend invocation,
// then handed to the encoder.
type RgbFrame struct {
	Width  int
	Height int

	// Samples holds Width*Height*3 values, row-major, interleaved R,G,B.
	Samples []uint16

	// BitsPerSample is always 16 after the pipeline's final quantization.
	BitsPerSample int
}

// DeriveBitsPerSample returns the effective sensor bit depth implied by
// the largest white level: the position of its highest set bit. A sensor
// that saturates at 4095 is a 12-bit sensor even when samples are stored
// in 16-bit words. Returns 16 when every white level is zero, matching
// the behavior for captures that omit saturation metadata.
func DeriveBitsPerSample(whiteLevels [4]uint16) int {
	var maxWhite uint16
	for _, w := range whiteLevels {
		if w > maxWhite {
			maxWhite = w
		}
	}
	if maxWhite == 0 {
		return 16
	}
	return 16 - bits.LeadingZeros16(maxWhite)
}

// Validate checks the structural and calibration preconditions every
// backend relies on. Backends call it before touching sample data so that
// malformed frames fail identically regardless of execution strategy.
func (f *RawFrame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: frame is %dx%d", ErrDemosaic, f.Width, f.Height)
	}
	if want := f.Width * f.Height; len(f.Samples) != want {
		return fmt.Errorf("%w: %d samples for %dx%d frame, want %d",
			ErrDemosaic, len(f.Samples), f.Width, f.Height, want)
	}
	// The demosaic step handles 8-bit and 16-bit sample classes; depths
	// in between ride the 16-bit path unchanged since samples already
	// live in 16-bit words. Depths outside 1..16 have no class to cast to.
	if f.BitsPerSample < 1 || f.BitsPerSample > 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.BitsPerSample)
	}
	if f.WBCoeffs[1] == 0 {
		return fmt.Errorf("%w: zero green white-balance reference", ErrUnsupportedFormat)
	}
	for c := range f.WhiteLevels {
		if f.WhiteLevels[c] <= f.BlackLevels[c] {
			return fmt.Errorf("%w: channel %d white level %d not above black level %d",
				ErrUnsupportedFormat, c, f.WhiteLevels[c], f.BlackLevels[c])
		}
	}
	return nil
}
