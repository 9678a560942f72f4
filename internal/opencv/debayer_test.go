//go:build !nocv

package opencv

import (
	"errors"
	"testing"

	"github.com/visioneerlab/rawpipe"
)

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

func TestChainMatchesCPUInterior(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
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

	// OpenCV's demosaic applies its own mirroring on the one-pixel
	// border; compare the interior, where the tap schemes coincide.
	const tolerance = 257
	for y := 1; y < frame.Height-1; y++ {
		for x := 1; x < frame.Width-1; x++ {
			for c := 0; c < 3; c++ {
				i := (y*frame.Width+x)*3 + c
				diff := int(got.Samples[i]) - int(want.Samples[i])
				if diff < 0 {
					diff = -diff
				}
				if diff > tolerance {
					t.Fatalf("pixel (%d,%d) channel %d: vendor=%d cpu=%d, diff %d exceeds tolerance %d",
						x, y, c, got.Samples[i], want.Samples[i], diff, tolerance)
				}
			}
		}
	}
}

func TestChainUniformFrame(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	frame := gradientFrame(16, 16)
	for i := range frame.Samples {
		frame.Samples[i] = 8000
	}
	got, err := d.Process(frame)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want, err := rawpipe.NewCPUDebayer().Process(frame)
	if err != nil {
		t.Fatalf("cpu Process: %v", err)
	}

	// With every sample equal, border handling cannot diverge, so the
	// whole frame must agree.
	const tolerance = 257
	for i := range want.Samples {
		diff := int(got.Samples[i]) - int(want.Samples[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Fatalf("sample %d: vendor=%d cpu=%d, diff %d exceeds tolerance %d",
				i, got.Samples[i], want.Samples[i], diff, tolerance)
		}
	}
}

func TestChainAllBlackFrame(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	frame := gradientFrame(8, 8)
	for i := range frame.Samples {
		frame.Samples[i] = 512 // exactly the black level
	}
	got, err := d.Process(frame)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, s := range got.Samples {
		if s != 0 {
			t.Fatalf("sample %d = %d, want 0 for all-black input", i, s)
		}
	}
}

func TestChainRejectsInvalidFrame(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	frame := gradientFrame(8, 8)
	frame.Samples = frame.Samples[:10]
	if _, err := d.Process(frame); !errors.Is(err, rawpipe.ErrDemosaic) {
		t.Errorf("Process with short samples = %v, want ErrDemosaic", err)
	}
}

func TestChainProcessAfterClose(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.Close()

	if _, err := d.Process(gradientFrame(8, 8)); !errors.Is(err, rawpipe.ErrDevice) {
		t.Errorf("Process after Close = %v, want ErrDevice", err)
	}
}
