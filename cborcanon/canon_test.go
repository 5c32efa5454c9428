package cborcanon

import "testing"

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	type rec struct {
		A uint64 `cbor:",toarray"`
		B string
	}
	in := rec{A: 7, B: "hello"}
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out rec
	if err := Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestIsCanonical_SortedMapKeys(t *testing.T) {
	canonical, err := Marshal(map[string]int{"a": 1, "b": 2, "z": 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !IsCanonical(canonical) {
		t.Fatalf("expected canonical encoding to be recognized as canonical")
	}
}

func TestIsCanonical_NonMinimalIntegerRejected(t *testing.T) {
	// 0x18 0x01 encodes uint(1) in the one-byte-follows form; the minimal
	// encoding of 1 is 0x01. This is well-formed CBOR but non-canonical.
	nonMinimal := []byte{0x18, 0x01}
	if IsCanonical(nonMinimal) {
		t.Fatalf("expected non-minimal integer encoding to be rejected")
	}
}

func TestValidateCanonical_RejectsNonCanonical(t *testing.T) {
	nonMinimal := []byte{0x18, 0x01}
	var v int
	if err := ValidateCanonical(nonMinimal, &v); err != ErrNotCanonical {
		t.Fatalf("expected ErrNotCanonical, got %v", err)
	}
}

func TestIsCanonical_MalformedInputRejected(t *testing.T) {
	if IsCanonical([]byte{0xff, 0xff, 0xff}) {
		t.Fatalf("expected malformed bytes to be rejected")
	}
}
