// Package tiffenc writes 16-bit TIFF images: grayscale for undeveloped
// mosaics, interleaved RGB for developed frames. Output is a classic
// little-endian, single-strip baseline file with optional LZW or
// zlib-deflate compression and optional horizontal differencing.
//
// The package encodes only; tests verify the output by decoding it with
// golang.org/x/image/tiff.
package tiffenc

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/visioneerlab/rawpipe"
)

// TIFF constants, named as in the TIFF 6.0 specification.
const (
	leHeader = "II\x2A\x00" // little-endian byte order mark and version

	cNone    uint16 = 1
	cLZW     uint16 = 5
	cDeflate uint16 = 8

	pBlackIsZero uint32 = 1
	pRGB         uint32 = 2

	prHorizontal uint32 = 2

	resPerInch uint32 = 2

	dtShort    uint16 = 3
	dtLong     uint16 = 4
	dtRational uint16 = 5

	tImageWidth                uint16 = 256
	tImageLength               uint16 = 257
	tBitsPerSample             uint16 = 258
	tCompression               uint16 = 259
	tPhotometricInterpretation uint16 = 262
	tStripOffsets              uint16 = 273
	tSamplesPerPixel           uint16 = 277
	tRowsPerStrip              uint16 = 278
	tStripByteCounts           uint16 = 279
	tXResolution               uint16 = 282
	tYResolution               uint16 = 283
	tResolutionUnit            uint16 = 296
	tPredictor                 uint16 = 317
)

// Encoder writes frames as single-strip little-endian TIFF files. The
// zero value is ready to use; compression and predictor selection come
// from the Config passed per call.
type Encoder struct{}

var _ rawpipe.Encoder = Encoder{}

// EncodeGray16 writes the undeveloped mosaic as 16-bit grayscale
// (PhotometricInterpretation BlackIsZero).
func (Encoder) EncodeGray16(w io.Writer, f *rawpipe.RawFrame, cfg rawpipe.Config) error {
	if f.Width <= 0 || f.Height <= 0 || len(f.Samples) != f.Width*f.Height {
		return fmt.Errorf("%w: inconsistent geometry %dx%d with %d samples",
			rawpipe.ErrEncode, f.Width, f.Height, len(f.Samples))
	}
	return encode(w, f.Samples, f.Width, f.Height, 1, cfg)
}

// EncodeRGB16 writes a developed frame as 16-bit interleaved RGB.
func (Encoder) EncodeRGB16(w io.Writer, f *rawpipe.RgbFrame, cfg rawpipe.Config) error {
	if f.Width <= 0 || f.Height <= 0 || len(f.Samples) != f.Width*f.Height*3 {
		return fmt.Errorf("%w: inconsistent geometry %dx%d with %d samples",
			rawpipe.ErrEncode, f.Width, f.Height, len(f.Samples))
	}
	return encode(w, f.Samples, f.Width, f.Height, 3, cfg)
}

func encode(w io.Writer, samples []uint16, width, height, channels int, cfg rawpipe.Config) error {
	if cfg.Predictor() == rawpipe.PredictorHorizontal {
		samples = differenceRows(samples, width, height, channels)
	}
	strip, compTag, err := compress(samplesToBytes(samples), cfg.Compression())
	if err != nil {
		return fmt.Errorf("%w: %v", rawpipe.ErrEncode, err)
	}

	// Strip data sits right after the 8-byte header; the IFD follows,
	// padded to a word boundary.
	pad := len(strip) & 1
	ifdOffset := 8 + len(strip) + pad

	photometric := pBlackIsZero
	if channels == 3 {
		photometric = pRGB
	}
	bits := make([]uint32, channels)
	for i := range bits {
		bits[i] = 16
	}

	entries := []ifdEntry{
		{tImageWidth, dtLong, []uint32{uint32(width)}},
		{tImageLength, dtLong, []uint32{uint32(height)}},
		{tBitsPerSample, dtShort, bits},
		{tCompression, dtShort, []uint32{uint32(compTag)}},
		{tPhotometricInterpretation, dtShort, []uint32{photometric}},
		{tStripOffsets, dtLong, []uint32{8}},
		{tSamplesPerPixel, dtShort, []uint32{uint32(channels)}},
		{tRowsPerStrip, dtLong, []uint32{uint32(height)}},
		{tStripByteCounts, dtLong, []uint32{uint32(len(strip))}},
		{tXResolution, dtRational, []uint32{72, 1}},
		{tYResolution, dtRational, []uint32{72, 1}},
		{tResolutionUnit, dtShort, []uint32{resPerInch}},
	}
	if cfg.Predictor() == rawpipe.PredictorHorizontal {
		// Tag 317 sorts after every entry above.
		entries = append(entries, ifdEntry{tPredictor, dtShort, []uint32{prHorizontal}})
	}

	var buf bytes.Buffer
	buf.Grow(ifdOffset + 2 + len(entries)*12 + 4 + 32)
	buf.WriteString(leHeader)
	var b4 [4]byte
	binary.LittleEndian.PutUint32(b4[:], uint32(ifdOffset))
	buf.Write(b4[:])
	buf.Write(strip)
	if pad == 1 {
		buf.WriteByte(0)
	}
	writeIFD(&buf, ifdOffset, entries)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", rawpipe.ErrEncode, err)
	}
	return nil
}

// ifdEntry is one directory entry. Values are kept as uint32s
// regardless of on-disk datatype: shorts use one element each,
// rationals two (numerator then denominator).
type ifdEntry struct {
	tag      uint16
	datatype uint16
	value    []uint32
}

// byteSize returns the on-disk size of the entry's values.
func (e ifdEntry) byteSize() int {
	if e.datatype == dtShort {
		return 2 * len(e.value)
	}
	return 4 * len(e.value)
}

// count returns the entry's value count as written to the directory.
func (e ifdEntry) count() uint32 {
	if e.datatype == dtRational {
		return uint32(len(e.value) / 2)
	}
	return uint32(len(e.value))
}

// writeIFD appends the directory and its out-of-line values. Entries
// must already be sorted by tag; values wider than the 4-byte field are
// placed after the directory's next-IFD terminator.
func writeIFD(buf *bytes.Buffer, ifdOffset int, entries []ifdEntry) {
	le := binary.LittleEndian
	var extra bytes.Buffer
	extraBase := ifdOffset + 2 + len(entries)*12 + 4

	var b2 [2]byte
	var b4 [4]byte
	le.PutUint16(b2[:], uint16(len(entries)))
	buf.Write(b2[:])

	for _, e := range entries {
		le.PutUint16(b2[:], e.tag)
		buf.Write(b2[:])
		le.PutUint16(b2[:], e.datatype)
		buf.Write(b2[:])
		le.PutUint32(b4[:], e.count())
		buf.Write(b4[:])

		if e.byteSize() <= 4 {
			var field [4]byte
			if e.datatype == dtShort {
				for i, v := range e.value {
					le.PutUint16(field[i*2:], uint16(v))
				}
			} else {
				le.PutUint32(field[:], e.value[0])
			}
			buf.Write(field[:])
			continue
		}

		le.PutUint32(b4[:], uint32(extraBase+extra.Len()))
		buf.Write(b4[:])
		for _, v := range e.value {
			if e.datatype == dtShort {
				le.PutUint16(b2[:], uint16(v))
				extra.Write(b2[:])
			} else {
				le.PutUint32(b4[:], v)
				extra.Write(b4[:])
			}
		}
	}

	le.PutUint32(b4[:], 0) // no next IFD
	buf.Write(b4[:])
	buf.Write(extra.Bytes())
}

// compress applies the configured compression and reports the matching
// TIFF compression tag value.
func compress(data []byte, c rawpipe.Compression) ([]byte, uint16, error) {
	switch c {
	case rawpipe.CompressionNone:
		return data, cNone, nil
	case rawpipe.CompressionLZW:
		return lzwCompress(data), cLZW, nil
	case rawpipe.CompressionDeflateFast:
		out, err := deflate(data, zlib.BestSpeed)
		return out, cDeflate, err
	case rawpipe.CompressionDeflateBalanced:
		out, err := deflate(data, 6)
		return out, cDeflate, err
	case rawpipe.CompressionDeflateBest:
		out, err := deflate(data, zlib.BestCompression)
		return out, cDeflate, err
	default:
		return nil, 0, fmt.Errorf("unknown compression %d", int(c))
	}
}

func deflate(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// differenceRows applies TIFF horizontal differencing: within each row,
// every sample is replaced by its difference from the sample one pixel
// to the left in the same channel, modulo 2^16. The first pixel of each
// row is kept as-is.
func differenceRows(samples []uint16, width, height, channels int) []uint16 {
	out := make([]uint16, len(samples))
	rowLen := width * channels
	for y := 0; y < height; y++ {
		row := samples[y*rowLen : (y+1)*rowLen]
		orow := out[y*rowLen : (y+1)*rowLen]
		copy(orow[:channels], row[:channels])
		for i := channels; i < rowLen; i++ {
			orow[i] = row[i] - row[i-channels]
		}
	}
	return out
}

// samplesToBytes serializes u16 samples little-endian, matching the
// header's byte-order mark.
func samplesToBytes(samples []uint16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], s)
	}
	return out
}
