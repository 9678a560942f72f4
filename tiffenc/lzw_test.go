package tiffenc

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	tifflzw "golang.org/x/image/tiff/lzw"
)

// lzwDecode runs the reference TIFF-flavor decoder over an encoded
// stream. Any disagreement on bit packing, the early width change, or
// table resets surfaces here as corrupt output or a decode error.
func lzwDecode(t *testing.T, data []byte) []byte {
	t.Helper()
	r := tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

// A one-byte payload has a fully hand-checkable stream: clear code,
// literal, terminator, zero padding.
func TestLZWGolden(t *testing.T) {
	got := lzwCompress([]byte{'A'})
	want := []byte{0x80, 0x10, 0x60, 0x20}
	if !bytes.Equal(got, want) {
		t.Fatalf("lzwCompress(%q) = % x, want % x", "A", got, want)
	}
}

func TestLZWRoundTrip(t *testing.T) {
	random := make([]byte, 64<<10)
	rand.New(rand.NewSource(1)).Read(random)

	sawtooth := make([]byte, 8192)
	for i := range sawtooth {
		sawtooth[i] = byte(i % 251)
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"single", []byte{0x7f}},
		{"run", bytes.Repeat([]byte{'a'}, 500)},
		{"text", []byte("TOBEORNOTTOBEORTOBEORNOT")},
		{"sawtooth", sawtooth},
		// Large incompressible input walks every code width and forces
		// table resets.
		{"random-64k", random},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc := lzwCompress(tc.data)
			if got := lzwDecode(t, enc); !bytes.Equal(got, tc.data) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(tc.data))
			}
		})
	}
}

func TestLZWCompressesRepetition(t *testing.T) {
	data := bytes.Repeat([]byte{'x', 'y'}, 2000)
	if enc := lzwCompress(data); len(enc) >= len(data) {
		t.Errorf("encoded %d bytes to %d, expected shrinkage", len(data), len(enc))
	}
}
