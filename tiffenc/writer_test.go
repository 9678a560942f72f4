package tiffenc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/visioneerlab/rawpipe"
)

func rampGray(w, h int) *rawpipe.RawFrame {
	f := &rawpipe.RawFrame{
		Width:         w,
		Height:        h,
		Samples:       make([]uint16, w*h),
		BitsPerSample: 16,
	}
	for i := range f.Samples {
		f.Samples[i] = uint16(i * 37)
	}
	return f
}

func rampRGB(w, h int) *rawpipe.RgbFrame {
	f := &rawpipe.RgbFrame{
		Width:         w,
		Height:        h,
		Samples:       make([]uint16, w*h*3),
		BitsPerSample: 16,
	}
	for i := 0; i < w*h; i++ {
		f.Samples[i*3+0] = uint16(i * 101)
		f.Samples[i*3+1] = uint16(i*101 + 7000)
		f.Samples[i*3+2] = uint16(i*101 + 14000)
	}
	return f
}

func decodeTIFF(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

func checkGray(t *testing.T, img image.Image, f *rawpipe.RawFrame) {
	t.Helper()
	b := img.Bounds()
	if b.Dx() != f.Width || b.Dy() != f.Height {
		t.Fatalf("decoded bounds %dx%d, want %dx%d", b.Dx(), b.Dy(), f.Width, f.Height)
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			g, ok := img.At(x, y).(color.Gray16)
			if !ok {
				t.Fatalf("pixel (%d,%d) is %T, want color.Gray16", x, y, img.At(x, y))
			}
			if want := f.Samples[y*f.Width+x]; g.Y != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, g.Y, want)
			}
		}
	}
}

func checkRGB(t *testing.T, img image.Image, f *rawpipe.RgbFrame) {
	t.Helper()
	b := img.Bounds()
	if b.Dx() != f.Width || b.Dy() != f.Height {
		t.Fatalf("decoded bounds %dx%d, want %dx%d", b.Dx(), b.Dy(), f.Width, f.Height)
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c, ok := img.At(x, y).(color.RGBA64)
			if !ok {
				t.Fatalf("pixel (%d,%d) is %T, want color.RGBA64", x, y, img.At(x, y))
			}
			i := (y*f.Width + x) * 3
			if c.R != f.Samples[i] || c.G != f.Samples[i+1] || c.B != f.Samples[i+2] {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want (%d,%d,%d)",
					x, y, c.R, c.G, c.B, f.Samples[i], f.Samples[i+1], f.Samples[i+2])
			}
			if c.A != 0xffff {
				t.Fatalf("pixel (%d,%d) alpha = %d, want opaque", x, y, c.A)
			}
		}
	}
}

func TestEncodeGray16(t *testing.T) {
	f := rampGray(9, 5)
	var buf bytes.Buffer
	if err := (Encoder{}).EncodeGray16(&buf, f, rawpipe.NewConfig()); err != nil {
		t.Fatalf("EncodeGray16: %v", err)
	}
	out := buf.Bytes()

	if string(out[:4]) != leHeader {
		t.Fatalf("header = % x, want % x", out[:4], []byte(leHeader))
	}
	if got, want := binary.LittleEndian.Uint32(out[4:8]), uint32(8+9*5*2); got != want {
		t.Fatalf("IFD offset = %d, want %d", got, want)
	}

	checkGray(t, decodeTIFF(t, out), f)
}

func TestEncodeRGB16(t *testing.T) {
	f := rampRGB(7, 4)
	var buf bytes.Buffer
	if err := (Encoder{}).EncodeRGB16(&buf, f, rawpipe.NewConfig()); err != nil {
		t.Fatalf("EncodeRGB16: %v", err)
	}
	checkRGB(t, decodeTIFF(t, buf.Bytes()), f)
}

func TestCompressedRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		opts []rawpipe.ConfigOption
	}{
		{"lzw", []rawpipe.ConfigOption{
			rawpipe.WithCompression(rawpipe.CompressionLZW),
		}},
		{"lzw-predictor", []rawpipe.ConfigOption{
			rawpipe.WithCompression(rawpipe.CompressionLZW),
			rawpipe.WithPredictor(rawpipe.PredictorHorizontal),
		}},
		{"deflate-fast", []rawpipe.ConfigOption{
			rawpipe.WithCompression(rawpipe.CompressionDeflateFast),
		}},
		{"deflate-balanced-predictor", []rawpipe.ConfigOption{
			rawpipe.WithCompression(rawpipe.CompressionDeflateBalanced),
			rawpipe.WithPredictor(rawpipe.PredictorHorizontal),
		}},
		{"deflate-best", []rawpipe.ConfigOption{
			rawpipe.WithCompression(rawpipe.CompressionDeflateBest),
		}},
		{"predictor-only", []rawpipe.ConfigOption{
			rawpipe.WithPredictor(rawpipe.PredictorHorizontal),
		}},
	}

	gray := rampGray(33, 21)
	rgb := rampRGB(33, 21)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := rawpipe.NewConfig(tc.opts...)

			var gbuf bytes.Buffer
			if err := (Encoder{}).EncodeGray16(&gbuf, gray, cfg); err != nil {
				t.Fatalf("EncodeGray16: %v", err)
			}
			if off := binary.LittleEndian.Uint32(gbuf.Bytes()[4:8]); off%2 != 0 {
				t.Errorf("IFD offset %d is not word-aligned", off)
			}
			checkGray(t, decodeTIFF(t, gbuf.Bytes()), gray)

			var cbuf bytes.Buffer
			if err := (Encoder{}).EncodeRGB16(&cbuf, rgb, cfg); err != nil {
				t.Fatalf("EncodeRGB16: %v", err)
			}
			checkRGB(t, decodeTIFF(t, cbuf.Bytes()), rgb)
		})
	}
}

// Row-constant gradients difference down to runs of identical values, so
// predicted output must compress better than unpredicted.
func TestPredictorImprovesCompression(t *testing.T) {
	f := rampRGB(128, 64)

	encoded := func(cfg rawpipe.Config) int {
		var buf bytes.Buffer
		if err := (Encoder{}).EncodeRGB16(&buf, f, cfg); err != nil {
			t.Fatalf("EncodeRGB16: %v", err)
		}
		return buf.Len()
	}

	plain := encoded(rawpipe.NewConfig(
		rawpipe.WithCompression(rawpipe.CompressionDeflateBalanced)))
	predicted := encoded(rawpipe.NewConfig(
		rawpipe.WithCompression(rawpipe.CompressionDeflateBalanced),
		rawpipe.WithPredictor(rawpipe.PredictorHorizontal)))

	if predicted >= plain {
		t.Errorf("predicted size %d not below plain size %d", predicted, plain)
	}
}

func TestEncodeRejectsInconsistentFrame(t *testing.T) {
	cfg := rawpipe.NewConfig()

	gray := rampGray(4, 4)
	gray.Samples = gray.Samples[:10]
	if err := (Encoder{}).EncodeGray16(&bytes.Buffer{}, gray, cfg); !errors.Is(err, rawpipe.ErrEncode) {
		t.Errorf("short gray samples: err = %v, want ErrEncode", err)
	}

	rgb := rampRGB(4, 4)
	rgb.Width = 0
	if err := (Encoder{}).EncodeRGB16(&bytes.Buffer{}, rgb, cfg); !errors.Is(err, rawpipe.ErrEncode) {
		t.Errorf("zero rgb width: err = %v, want ErrEncode", err)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("sink closed") }

func TestEncodeWriteFailure(t *testing.T) {
	err := (Encoder{}).EncodeGray16(failWriter{}, rampGray(4, 4), rawpipe.NewConfig())
	if !errors.Is(err, rawpipe.ErrEncode) {
		t.Fatalf("err = %v, want ErrEncode", err)
	}
}
