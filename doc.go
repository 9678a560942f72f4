// Package rawpipe converts single-channel Bayer-pattern (RGGB) sensor
// captures into display-referred RGB images.
//
// # Overview
//
// rawpipe is the debayer and color-correction stage of an embedded vision
// platform. It takes raw sensor samples plus per-capture calibration
// metadata (white balance, black/white levels, camera-to-XYZ matrix) and
// produces 16-bit RGB, with the result encoded to TIFF by a pluggable
// encoder. The same per-pixel arithmetic is available from three
// interchangeable backends behind one contract:
//
//   - BackendCPU: a pure-Go bilinear demosaic, the correctness reference
//   - BackendGPUKernel: one fused WGSL compute kernel via gogpu/wgpu
//   - BackendGPUVendor: a chain of OpenCV primitives via gocv
//
// # Quick Start
//
//	import (
//	    "github.com/visioneerlab/rawpipe"
//	    "github.com/visioneerlab/rawpipe/rawio"
//	    "github.com/visioneerlab/rawpipe/tiffenc"
//	)
//
//	cfg := rawpipe.NewConfig(
//	    rawpipe.WithDebayer(true),
//	    rawpipe.WithCompression(rawpipe.CompressionDeflateBalanced),
//	)
//	p, err := rawpipe.New(cfg,
//	    rawpipe.WithDecoder(rawio.Decoder{}),
//	    rawpipe.WithEncoder(tiffenc.Encoder{}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//	tiff, err := p.Convert(rawBytes)
//
// # Backends
//
// The CPU backend is always available. The GPU backends are opt-in via
// blank import, which registers them for selection by configuration:
//
//	import _ "github.com/visioneerlab/rawpipe/gpu"    // fused WGSL kernel
//	import _ "github.com/visioneerlab/rawpipe/opencv" // OpenCV primitive chain
//
// Requesting an unregistered backend is an error; rawpipe never silently
// substitutes a different backend for the one configured.
//
// # Numeric Contract
//
// Every backend applies the identical per-pixel transform: black-level
// removal, range normalization, white balance, a combined 3x4 color
// matrix with a fixed exposure multiplier folded in, then clamp and
// truncation to 16 bits. Backend outputs differ only by floating-point
// execution order, within a small absolute tolerance. See ColorPipeline.
//
// # Logging
//
// rawpipe produces no log output by default. Call SetLogger to enable it.
package rawpipe
