package rawpipe

// XYZToSRGB is the CIE XYZ to linear sRGB matrix for the D65 white point.
var XYZToSRGB = [3][3]float32{
	{3.2404542, -1.5371385, -0.4985314},
	{-0.9692660, 1.8760108, 0.0415560},
	{0.0556434, -0.2040259, 1.0572252},
}

// Exposure is the fixed exposure multiplier folded into every entry of
// the combined color matrix, including the offset column. All backends
// share it so their outputs stay comparable.
const Exposure = 3.5

// ColorTransform is the combined camera-to-sRGB matrix for one capture:
// XYZToSRGB · CamToXYZ, a row-major 3x4 (3x3 linear part plus offset
// column), with Exposure pre-multiplied into all twelve entries.
type ColorTransform [3][4]float32

// NewColorTransform combines the capture's CamToXYZ calibration with the
// fixed XYZToSRGB matrix and folds in the exposure multiplier. Computed
// once per frame; every backend consumes the same twelve floats.
func NewColorTransform(camToXYZ [3][4]float32) ColorTransform {
	var m ColorTransform
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += XYZToSRGB[r][k] * camToXYZ[k][c]
			}
			m[r][c] = sum * Exposure
		}
	}
	return m
}

// Apply maps a sensor-linear triplet through the transform: linear part
// times the vector, plus the offset column.
func (m ColorTransform) Apply(r, g, b float32) (float32, float32, float32) {
	or := m[0][0]*r + m[0][1]*g + m[0][2]*b + m[0][3]
	og := m[1][0]*r + m[1][1]*g + m[1][2]*b + m[1][3]
	ob := m[2][0]*r + m[2][1]*g + m[2][2]*b + m[2][3]
	return or, og, ob
}

// ColorPipeline bundles the per-capture scalars of the shared per-pixel
// transform: black levels, range normalization, white-balance gains, and
// the combined color matrix. Backends precompute it once per frame and
// must apply its steps in this exact order with these exact bounds:
//
//  1. Per-channel black-level removal, floored at zero.
//  2. Division by Range, the channel-0 white-to-black span. Per-channel
//     spans exist in calibration but do not participate here; channel 0
//     stands in for all three.
//  3. White balance: R and B scaled by the green-normalized gains, G by 1.
//  4. The combined 3x4 matrix (exposure already folded in).
//  5. Quantization: clamp to [0,1], scale to 16 bits, truncate.
//
// Outputs across backends then differ only by floating-point execution
// order.
type ColorPipeline struct {
	// Black holds the R, G, B black levels as floats.
	Black [3]float32

	// Range is max(1, WhiteLevels[0]-BlackLevels[0]).
	Range float32

	// GainR and GainB are WBCoeffs[0]/WBCoeffs[1] and
	// WBCoeffs[2]/WBCoeffs[1]. Green keeps gain 1.
	GainR float32
	GainB float32

	// Transform is the combined camera-to-sRGB matrix.
	Transform ColorTransform
}

// NewColorPipeline derives the pipeline scalars from a frame's
// calibration. The frame must have passed Validate, which guarantees a
// nonzero green white-balance reference.
func NewColorPipeline(f *RawFrame) ColorPipeline {
	rng := float32(int(f.WhiteLevels[0]) - int(f.BlackLevels[0]))
	if rng < 1 {
		rng = 1
	}
	return ColorPipeline{
		Black: [3]float32{
			float32(f.BlackLevels[0]),
			float32(f.BlackLevels[1]),
			float32(f.BlackLevels[2]),
		},
		Range:     rng,
		GainR:     f.WBCoeffs[0] / f.WBCoeffs[1],
		GainB:     f.WBCoeffs[2] / f.WBCoeffs[1],
		Transform: NewColorTransform(f.CamToXYZ),
	}
}

// Apply runs steps 1-4 on one sensor-linear triplet and returns the
// display-referred linear result, still unclamped. Quantize finishes the
// contract.
func (p *ColorPipeline) Apply(r, g, b float32) (float32, float32, float32) {
	lr := (max(0, r-p.Black[0]) / p.Range) * p.GainR
	lg := max(0, g-p.Black[1]) / p.Range
	lb := (max(0, b-p.Black[2]) / p.Range) * p.GainB
	return p.Transform.Apply(lr, lg, lb)
}

// Quantize clamps one output channel to [0,1] and truncates it onto the
// full 16-bit range. Truncation, not rounding: 0.5 in channel terms maps
// to 32767.
func Quantize(v float32) uint16 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 65535
	}
	return uint16(v * 65535)
}
