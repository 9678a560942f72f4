// Copyright 2026 The rawpipe Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/visioneerlab/rawpipe"
)

//go:embed shaders/debayer_rggb.wgsl
var debayerShaderWGSL string

// kernelParamsSize is the byte size of the uniform block: eight 32-bit
// scalars followed by three vec4 matrix rows.
const kernelParamsSize = 8*4 + 3*16

// kernelParams is the uniform block consumed by debayer_rggb.wgsl. The
// field order must match the WGSL Params struct; the matrix rows sit at
// offset 32, which keeps their vec4 alignment without padding.
type kernelParams struct {
	Width  uint32
	Height uint32
	GainR  float32
	GainB  float32
	BlackR float32
	BlackG float32
	BlackB float32
	Range  float32
	Rows   [3][4]float32
}

// newKernelParams flattens a frame's color pipeline into the uniform
// layout the shader expects.
func newKernelParams(f *rawpipe.RawFrame, p *rawpipe.ColorPipeline) kernelParams {
	return kernelParams{
		Width:  uint32(f.Width),
		Height: uint32(f.Height),
		GainR:  p.GainR,
		GainB:  p.GainB,
		BlackR: p.Black[0],
		BlackG: p.Black[1],
		BlackB: p.Black[2],
		Range:  p.Range,
		Rows:   p.Transform,
	}
}

// toBytes serializes the params in little-endian order for upload.
func (p kernelParams) toBytes() []byte {
	buf := make([]byte, kernelParamsSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], p.Width)
	le.PutUint32(buf[4:8], p.Height)
	le.PutUint32(buf[8:12], math.Float32bits(p.GainR))
	le.PutUint32(buf[12:16], math.Float32bits(p.GainB))
	le.PutUint32(buf[16:20], math.Float32bits(p.BlackR))
	le.PutUint32(buf[20:24], math.Float32bits(p.BlackG))
	le.PutUint32(buf[24:28], math.Float32bits(p.BlackB))
	le.PutUint32(buf[28:32], math.Float32bits(p.Range))
	off := 32
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			le.PutUint32(buf[off:], math.Float32bits(p.Rows[r][c]))
			off += 4
		}
	}
	return buf
}

// packSamples packs u16 sensor samples two per 32-bit word, low half
// first, so the shader can select halves by index parity. An odd tail
// sample is zero-padded; the shader never reads the padding.
func packSamples(samples []uint16) []byte {
	words := (len(samples) + 1) / 2
	out := make([]byte, words*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], s)
	}
	return out
}

// unpackRGB quantizes the shader's f32 output into u16 RGB samples,
// applying the same clamp-and-truncate contract as the CPU backend.
func unpackRGB(raw []byte, pixelCount int) []uint16 {
	out := make([]uint16, pixelCount*3)
	for i := range out {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		out[i] = rawpipe.Quantize(math.Float32frombits(bits))
	}
	return out
}

// spirvWords reassembles a little-endian SPIR-V byte stream into the
// 32-bit words the shader module descriptor expects.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}
