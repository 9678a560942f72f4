package rawpipe

func init() {
	// The reference backend has no construction failure modes, so the
	// factory never errors and BackendCPU is always selectable.
	_ = RegisterBackend(BackendCPU, func() (Debayerer, error) {
		return NewCPUDebayer(), nil
	})
}

// CPUDebayer is the pure-Go reference backend: bilinear RGGB
// interpolation in a scalar loop followed by the shared ColorPipeline
// transform. Any other backend that disagrees with it beyond tolerance is
// considered defective, not this one.
//
// The zero value is ready to use; Process is safe for concurrent calls.
type CPUDebayer struct{}

// NewCPUDebayer returns the reference backend.
func NewCPUDebayer() *CPUDebayer { return &CPUDebayer{} }

var _ Debayerer = (*CPUDebayer)(nil)

// Name implements Debayerer.
func (*CPUDebayer) Name() string { return "cpu" }

// Process develops the frame serially, one output pixel at a time.
//
// RGGB layout (row-major, 0-indexed):
//
//	(even row, even col) = R
//	(even row, odd  col) = G  (Gr)
//	(odd  row, even col) = G  (Gb)
//	(odd  row, odd  col) = B
//
// Each cell's two missing channels come from bilinear neighborhood
// averages; edge pixels use clamped (replicated) neighbor lookups. The
// GPU kernel mirrors this exact scheme so the two agree tap for tap.
func (d *CPUDebayer) Process(f *RawFrame) (*RgbFrame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	width, height := f.Width, f.Height
	pipe := NewColorPipeline(f)
	out := make([]uint16, width*height*3)

	clampX := func(x int) int {
		if x < 0 {
			return 0
		}
		if x >= width {
			return width - 1
		}
		return x
	}
	clampY := func(y int) int {
		if y < 0 {
			return 0
		}
		if y >= height {
			return height - 1
		}
		return y
	}
	px := func(x, y int) float32 {
		return float32(f.Samples[clampY(y)*width+clampX(x)])
	}

	for y := 0; y < height; y++ {
		evenRow := y%2 == 0
		for x := 0; x < width; x++ {
			evenCol := x%2 == 0
			var r, g, b float32

			switch {
			case evenRow && evenCol:
				// Red pixel: have R, need G and B
				r = px(x, y)
				g = (px(x-1, y) + px(x+1, y) + px(x, y-1) + px(x, y+1)) / 4
				b = (px(x-1, y-1) + px(x+1, y-1) + px(x-1, y+1) + px(x+1, y+1)) / 4

			case evenRow && !evenCol:
				// Green on red row (Gr): R neighbors sit left/right
				r = (px(x-1, y) + px(x+1, y)) / 2
				g = px(x, y)
				b = (px(x, y-1) + px(x, y+1)) / 2

			case !evenRow && evenCol:
				// Green on blue row (Gb): R neighbors sit above/below
				r = (px(x, y-1) + px(x, y+1)) / 2
				g = px(x, y)
				b = (px(x-1, y) + px(x+1, y)) / 2

			default:
				// Blue pixel: have B, need R and G
				r = (px(x-1, y-1) + px(x+1, y-1) + px(x-1, y+1) + px(x+1, y+1)) / 4
				g = (px(x-1, y) + px(x+1, y) + px(x, y-1) + px(x, y+1)) / 4
				b = px(x, y)
			}

			or, og, ob := pipe.Apply(r, g, b)
			i := (y*width + x) * 3
			out[i] = Quantize(or)
			out[i+1] = Quantize(og)
			out[i+2] = Quantize(ob)
		}
	}

	return &RgbFrame{
		Width:         width,
		Height:        height,
		Samples:       out,
		BitsPerSample: 16,
	}, nil
}
