// Copyright 2026 The rawpipe Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nocv

package opencv

import (
	"encoding/binary"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/visioneerlab/rawpipe"
)

// PrimitiveDebayer develops frames as a chain of OpenCV primitives:
// demosaic, channel reorder, float conversion, black subtraction, zero
// floor, per-channel scale, and the combined color matrix, one call per
// stage. Each stage's output is checked before the next runs, so a
// failing primitive is reported by name instead of surfacing as a
// corrupt frame three stages later.
//
// The chain's arithmetic matches the other backends step for step; only
// float evaluation order differs, which keeps outputs inside the shared
// agreement tolerance.
type PrimitiveDebayer struct {
	mu     sync.Mutex
	closed bool
}

var _ rawpipe.Debayerer = (*PrimitiveDebayer)(nil)

// New constructs the vendor-primitive backend. The OpenCV runtime is
// linked statically through gocv; there is no device to acquire, so
// construction cannot fail in this build.
func New() (*PrimitiveDebayer, error) {
	rawpipe.Logger().Debug("vendor backend initialized", "opencv", gocv.OpenCVVersion())
	return &PrimitiveDebayer{}, nil
}

// Name implements rawpipe.Debayerer.
func (d *PrimitiveDebayer) Name() string { return "gpu-vendor" }

// Process implements rawpipe.Debayerer.
func (d *PrimitiveDebayer) Process(f *rawpipe.RawFrame) (*rawpipe.RgbFrame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("%w: backend is closed", rawpipe.ErrDevice)
	}

	pipe := rawpipe.NewColorPipeline(f)

	mosaic, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV16UC1, samplesToBytes(f.Samples))
	if err != nil {
		return nil, fmt.Errorf("%w: upload mosaic: %v", rawpipe.ErrDevice, err)
	}
	defer mosaic.Close()

	// OpenCV names Bayer layouts by the second row's middle pixels, so
	// RGGB selects the BayerBG code.
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mosaic, &bgr, gocv.ColorBayerBGToBGR)
	if err := stageCheck("demosaic", bgr, f); err != nil {
		return nil, err
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)
	if err := stageCheck("channel reorder", rgb, f); err != nil {
		return nil, err
	}

	linear := gocv.NewMat()
	defer linear.Close()
	rgb.ConvertTo(&linear, gocv.MatTypeCV32F)
	if err := stageCheck("float convert", linear, f); err != nil {
		return nil, err
	}

	black := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(pipe.Black[0]), float64(pipe.Black[1]), float64(pipe.Black[2]), 0),
		f.Height, f.Width, gocv.MatTypeCV32FC3)
	defer black.Close()
	shifted := gocv.NewMat()
	defer shifted.Close()
	gocv.Subtract(linear, black, &shifted)
	if err := stageCheck("black subtract", shifted, f); err != nil {
		return nil, err
	}

	floored := gocv.NewMat()
	defer floored.Close()
	gocv.Threshold(shifted, &floored, 0, 0, gocv.ThresholdToZero)
	if err := stageCheck("zero floor", floored, f); err != nil {
		return nil, err
	}

	// Range normalization and white balance folded into one per-channel
	// scale pass.
	scale := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(
			float64(pipe.GainR/pipe.Range),
			float64(1/pipe.Range),
			float64(pipe.GainB/pipe.Range), 0),
		f.Height, f.Width, gocv.MatTypeCV32FC3)
	defer scale.Close()
	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Multiply(floored, scale, &scaled)
	if err := stageCheck("wb scale", scaled, f); err != nil {
		return nil, err
	}

	// Combined color matrix. Transform appends an implicit 1 as the
	// fourth input lane, which applies the offset column.
	tm := gocv.NewMatWithSize(3, 4, gocv.MatTypeCV32F)
	defer tm.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			tm.SetFloatAt(r, c, pipe.Transform[r][c])
		}
	}
	srgb := gocv.NewMat()
	defer srgb.Close()
	gocv.Transform(scaled, &srgb, tm)
	if err := stageCheck("color matrix", srgb, f); err != nil {
		return nil, err
	}

	data, err := srgb.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: readback: %v", rawpipe.ErrDevice, err)
	}
	want := f.Width * f.Height * 3
	if len(data) != want {
		return nil, fmt.Errorf("%w: readback size %d, want %d", rawpipe.ErrDevice, len(data), want)
	}
	out := make([]uint16, want)
	for i, v := range data {
		out[i] = rawpipe.Quantize(v)
	}

	return &rawpipe.RgbFrame{
		Width:         f.Width,
		Height:        f.Height,
		Samples:       out,
		BitsPerSample: 16,
	}, nil
}

// Close implements io.Closer. The backend holds no state between calls;
// closing only blocks further use.
func (d *PrimitiveDebayer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// stageCheck verifies that a chain stage produced output of the
// frame's geometry. OpenCV arithmetic primitives report failure by
// leaving the destination empty rather than returning an error.
func stageCheck(stage string, m gocv.Mat, f *rawpipe.RawFrame) error {
	if m.Empty() {
		return fmt.Errorf("%w: %s produced empty output", rawpipe.ErrDevice, stage)
	}
	if m.Rows() != f.Height || m.Cols() != f.Width {
		return fmt.Errorf("%w: %s produced %dx%d output for %dx%d frame",
			rawpipe.ErrDevice, stage, m.Cols(), m.Rows(), f.Width, f.Height)
	}
	return nil
}

// samplesToBytes lays u16 samples out as the little-endian byte stream
// a CV_16U Mat expects on the platforms gocv supports.
func samplesToBytes(samples []uint16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], s)
	}
	return out
}
