package prng

import (
	"bytes"
	"testing"
)

func baseCtx() Context {
	return Context{
		ChainID:        [32]byte{1},
		Height:         100,
		TxHash:         [32]byte{0x11},
		Caller:         []byte{0xaa, 0xaa},
		InstructionIdx: 0,
	}
}

func TestDerive_Empty(t *testing.T) {
	if got := Derive(baseCtx(), 0); len(got) != 0 {
		t.Fatalf("random(0) should return empty bytes, got %d bytes", len(got))
	}
}

func TestDerive_SameInstructionIndexIsIdentical(t *testing.T) {
	ctx := baseCtx()
	a := Derive(ctx, 32)
	b := Derive(ctx, 32)
	if !bytes.Equal(a, b) {
		t.Fatalf("random(32) at the same instruction index must be identical")
	}
}

func TestDerive_DifferentInstructionIndexDiffers(t *testing.T) {
	ctx1 := baseCtx()
	ctx2 := baseCtx()
	ctx2.InstructionIdx = 1
	a := Derive(ctx1, 32)
	b := Derive(ctx2, 32)
	if bytes.Equal(a, b) {
		t.Fatalf("random(32) at different instruction indices must differ")
	}
}

func TestDerive_PrefixConsistency(t *testing.T) {
	ctx := baseCtx()
	short := Derive(ctx, 16)
	long := Derive(ctx, 48)
	if !bytes.Equal(short, long[:16]) {
		t.Fatalf("short stream must be a prefix of the longer stream recomputation")
	}
}

func TestDerive_BeaconPresenceAffectsSeed(t *testing.T) {
	withoutBeacon := baseCtx()
	withBeacon := baseCtx()
	withBeacon.BeaconPresent = true
	withBeacon.BeaconValue = [32]byte{} // all-zero beacon, still "present"

	a := Derive(withoutBeacon, 32)
	b := Derive(withBeacon, 32)
	if bytes.Equal(a, b) {
		t.Fatalf("a present all-zero beacon must still change the transcript versus an absent beacon")
	}
}
