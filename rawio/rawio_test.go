package rawio

import (
	"errors"
	"reflect"
	"testing"

	"github.com/visioneerlab/rawpipe"
)

func TestRoundTrip(t *testing.T) {
	f := SyntheticFrame(6, 4)
	data, err := Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) != headerSize+6*4*2 {
		t.Fatalf("container size = %d, want %d", len(data), headerSize+6*4*2)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, f) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, f)
	}
}

func TestUnmarshalShortData(t *testing.T) {
	f := SyntheticFrame(4, 4)
	data, err := Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	for _, n := range []int{0, 3, headerSize - 1, headerSize + 5, len(data) - 1} {
		if _, err := Unmarshal(data[:n]); !errors.Is(err, rawpipe.ErrDecode) {
			t.Errorf("Unmarshal with %d bytes = %v, want ErrDecode", n, err)
		}
	}
}

func TestUnmarshalTrailingBytes(t *testing.T) {
	data, err := Marshal(SyntheticFrame(4, 4))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	data = append(data, 0xAB)
	if _, err := Unmarshal(data); !errors.Is(err, rawpipe.ErrDecode) {
		t.Errorf("Unmarshal with trailing byte = %v, want ErrDecode", err)
	}
}

func TestUnmarshalBadMagic(t *testing.T) {
	data, err := Marshal(SyntheticFrame(4, 4))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	data[0] = 'X'
	if _, err := Unmarshal(data); !errors.Is(err, rawpipe.ErrDecode) {
		t.Errorf("Unmarshal with bad magic = %v, want ErrDecode", err)
	}
}

func TestUnmarshalBadVersion(t *testing.T) {
	data, err := Marshal(SyntheticFrame(4, 4))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	data[4] = 99
	if _, err := Unmarshal(data); !errors.Is(err, rawpipe.ErrDecode) {
		t.Errorf("Unmarshal with version 99 = %v, want ErrDecode", err)
	}
}

func TestMarshalRejectsInconsistentFrame(t *testing.T) {
	f := SyntheticFrame(4, 4)
	f.Samples = f.Samples[:3]
	if _, err := Marshal(f); err == nil {
		t.Error("Marshal with short samples succeeded, want error")
	}

	f = SyntheticFrame(4, 4)
	f.Width = 0
	if _, err := Marshal(f); err == nil {
		t.Error("Marshal with zero width succeeded, want error")
	}
}

func TestSyntheticFrameDeterministic(t *testing.T) {
	a := SyntheticFrame(16, 12)
	b := SyntheticFrame(16, 12)
	if !reflect.DeepEqual(a, b) {
		t.Error("SyntheticFrame is not deterministic")
	}
	if a.BitsPerSample != 14 {
		t.Errorf("BitsPerSample = %d, want 14 for white level 16383", a.BitsPerSample)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("synthetic frame fails validation: %v", err)
	}
}

func TestDecoderDecodesThroughInterface(t *testing.T) {
	data, err := Marshal(SyntheticFrame(8, 6))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var dec rawpipe.Decoder = Decoder{}
	f, err := dec.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Width != 8 || f.Height != 6 {
		t.Errorf("decoded dimensions = %dx%d, want 8x6", f.Width, f.Height)
	}
}
