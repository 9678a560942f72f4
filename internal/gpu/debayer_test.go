//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/visioneerlab/rawpipe"
)

// gradientFrame builds a smooth diagonal ramp with realistic 14-bit
// calibration. Smooth content keeps the two backends' float rounding
// well inside the agreement tolerance.
func gradientFrame(width, height int) *rawpipe.RawFrame {
	f := &rawpipe.RawFrame{
		Width:         width,
		Height:        height,
		Samples:       make([]uint16, width*height),
		BitsPerSample: 14,
		WBCoeffs:      [4]float32{2.0, 1.0, 1.5, 0},
		BlackLevels:   [4]uint16{512, 512, 512, 512},
		WhiteLevels:   [4]uint16{16383, 16383, 16383, 16383},
		CamToXYZ: [3][4]float32{
			{0.4124, 0.3576, 0.1805, 0},
			{0.2126, 0.7152, 0.0722, 0},
			{0.0193, 0.1192, 0.9505, 0},
		},
	}
	span := 16383 - 512
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := 512 + span*(x+y)/(width+height-2)
			f.Samples[y*width+x] = uint16(v)
		}
	}
	return f
}

func TestKernelMatchesCPU(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Skipf("GPU not available: %v (expected in CI/test environments)", err)
	}
	defer d.Close()

	frame := gradientFrame(64, 48)
	got, err := d.Process(frame)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want, err := rawpipe.NewCPUDebayer().Process(frame)
	if err != nil {
		t.Fatalf("cpu Process: %v", err)
	}

	if got.Width != want.Width || got.Height != want.Height {
		t.Fatalf("dimensions = %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	if len(got.Samples) != len(want.Samples) {
		t.Fatalf("sample count = %d, want %d", len(got.Samples), len(want.Samples))
	}

	const tolerance = 257
	for i := range want.Samples {
		diff := int(got.Samples[i]) - int(want.Samples[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Fatalf("sample %d: gpu=%d cpu=%d, diff %d exceeds tolerance %d",
				i, got.Samples[i], want.Samples[i], diff, tolerance)
		}
	}
}

func TestKernelOddDimensions(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer d.Close()

	// 13x9 exercises both the packed-sample odd tail and partial 8x8
	// workgroups at the right and bottom edges.
	frame := gradientFrame(13, 9)
	got, err := d.Process(frame)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got.Samples) != 13*9*3 {
		t.Fatalf("sample count = %d, want %d", len(got.Samples), 13*9*3)
	}
}

func TestKernelRejectsInvalidFrame(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer d.Close()

	frame := gradientFrame(8, 8)
	frame.Samples = frame.Samples[:10]
	if _, err := d.Process(frame); !errors.Is(err, rawpipe.ErrDemosaic) {
		t.Errorf("Process with short samples = %v, want ErrDemosaic", err)
	}
}

func TestProcessAfterClose(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	d.Close()

	if _, err := d.Process(gradientFrame(8, 8)); !errors.Is(err, rawpipe.ErrDevice) {
		t.Errorf("Process after Close = %v, want ErrDevice", err)
	}
	// Close is safe to repeat.
	if err := d.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
