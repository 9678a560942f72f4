package tiffenc

import "bytes"

// TIFF-variant LZW differs from the GIF flavor in two ways: codes are
// packed into bytes most-significant-bit first, and the code width grows
// one code early (when the next free entry reaches 2^width-1 rather than
// 2^width). golang.org/x/image/tiff/lzw decodes this variant but has no
// encoder, and compress/lzw lacks the early width change, so the encoder
// lives here.
const (
	lzwClearCode = 256
	lzwEOFCode   = 257
	lzwFirstCode = 258

	// Entry 4094 is never assigned: the table restarts one short of the
	// 12-bit ceiling, as required by the TIFF 6.0 specification.
	lzwResetAt = 4094

	lzwMaxWidth = 12
)

type lzwEncoder struct {
	buf   bytes.Buffer
	bits  uint32
	nBits uint
	width uint

	// table maps (prefix code, next byte) to the code for the combined
	// string. Keys are prefix<<8 | byte.
	table map[uint32]uint16
	next  uint16
}

func (e *lzwEncoder) reset() {
	e.table = make(map[uint32]uint16, 4096)
	e.width = 9
	e.next = lzwFirstCode
}

// emit packs code into the output, high bits first.
func (e *lzwEncoder) emit(code uint16) {
	e.bits |= uint32(code) << (32 - e.nBits - e.width)
	e.nBits += e.width
	for e.nBits >= 8 {
		e.buf.WriteByte(byte(e.bits >> 24))
		e.bits <<= 8
		e.nBits -= 8
	}
}

// advance consumes the next free table slot and grows the code width
// when the slot count reaches the top of the current range. The growth
// happens one code earlier than in standard LZW.
func (e *lzwEncoder) advance() {
	e.next++
	if e.next >= 1<<e.width && e.width < lzwMaxWidth {
		e.width++
	}
}

// add registers the string (prefix + next byte) under the next free
// code, restarting the table when it is nearly full.
func (e *lzwEncoder) add(key uint32) {
	e.table[key] = e.next
	e.advance()
	if e.next == lzwResetAt {
		e.emit(lzwClearCode)
		e.reset()
	}
}

// lzwCompress encodes data as a TIFF LZW stream.
func lzwCompress(data []byte) []byte {
	e := &lzwEncoder{}
	e.reset()
	e.emit(lzwClearCode)

	if len(data) > 0 {
		prefix := uint16(data[0])
		for _, k := range data[1:] {
			key := uint32(prefix)<<8 | uint32(k)
			if code, ok := e.table[key]; ok {
				prefix = code
				continue
			}
			e.emit(prefix)
			e.add(key)
			prefix = uint16(k)
		}
		e.emit(prefix)
		// Decoders allot a table slot for every code they read, so the
		// final code still advances the width before the terminator.
		e.advance()
	}

	e.emit(lzwEOFCode)
	if e.nBits > 0 {
		e.buf.WriteByte(byte(e.bits >> 24))
	}
	return e.buf.Bytes()
}
