// Package cborcanon implements the canonical CBOR profile required by the
// capability layer: shortest-form integers, lexicographically sorted map
// keys by encoded bytes, no indefinite-length items, and no tags. Floats
// are not rejected: a float in its shortest form re-encodes to the same
// bytes and is accepted as canonical. Every
// persisted record and every hashed input goes through this codec so that
// two honest nodes that observe the same bytes derive the same state.
package cborcanon

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrNotCanonical is returned when a decoded value does not re-encode to the
// exact input bytes, i.e. the input used a non-canonical encoding of an
// otherwise well-formed CBOR value (long-form integers, unsorted map keys,
// indefinite-length items, duplicate keys, or a non-shortest float).
var ErrNotCanonical = errors.New("cborcanon: non-canonical encoding")

var encMode = mustEncMode()
var decMode = mustDecMode()

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	// CanonicalEncOptions already selects shortest-form integers, sorted
	// keys, and definite-length items (RFC 8949 core deterministic
	// encoding); tags are additionally rejected at decode time (see
	// mustDecMode) rather than at encode time, since our own schemas never
	// produce them. Floats are not rejected at either end.
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cborcanon: bad encode options: %v", err))
	}
	return mode
}

func mustDecMode() cbor.DecMode {
	opts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		TagsMd:      cbor.TagsModeForbidden,
		// ExtraReturnErrors leaves trailing bytes as caller error, not ours.
	}
	mode, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cborcanon: bad decode options: %v", err))
	}
	return mode
}

// Marshal encodes v using the canonical profile. Callers that build
// fixed-shape records (tagged `cbor:",toarray"`) get structural field
// ordering for free; this function is also used for the arbitrary
// user-supplied opts/circuit blobs where canonicity must be checked
// explicitly with IsCanonical before the bytes are trusted.
func Marshal(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cborcanon: marshal: %w", err)
	}
	return b, nil
}

// Unmarshal decodes canonical CBOR bytes into v. It rejects tags,
// indefinite-length items, and duplicate map keys outright (via decMode),
// but does NOT by itself confirm the input was the unique canonical
// encoding of the decoded value (e.g. it would accept 0x1801 as uint8(1)
// even though the canonical form is 0x01). Call IsCanonical first when the
// input crosses a consensus boundary (syscall entry, evidence envelope).
func Unmarshal(b []byte, v any) error {
	if err := decMode.Unmarshal(b, v); err != nil {
		return fmt.Errorf("cborcanon: unmarshal: %w", err)
	}
	return nil
}

// IsCanonical reports whether b is the unique canonical CBOR encoding of
// some value: decode then re-encode and compare bytes. This is the
// authoritative determinism check for any inbound structured byte string
// (opts CBOR, circuit CBOR, evidence envelope bodies).
func IsCanonical(b []byte) bool {
	var v any
	if err := decMode.Unmarshal(b, &v); err != nil {
		return false
	}
	re, err := encMode.Marshal(v)
	if err != nil {
		return false
	}
	return bytes.Equal(b, re)
}

// ValidateCanonical decodes b into v only if b is canonical; otherwise it
// returns ErrNotCanonical. Use this at every syscall/evidence boundary that
// accepts structured CBOR from outside the module.
func ValidateCanonical(b []byte, v any) error {
	if !IsCanonical(b) {
		return ErrNotCanonical
	}
	return Unmarshal(b, v)
}
