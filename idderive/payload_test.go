package idderive

import "testing"

func TestPayloadDigestAI_Deterministic(t *testing.T) {
	d1, err := PayloadDigestAI([]byte("demo"), []byte("count to 5"), nil, false)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	d2, err := PayloadDigestAI([]byte("demo"), []byte("count to 5"), nil, false)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("payload digest not deterministic")
	}
}

func TestPayloadDigestAI_OptsPresenceAffectsDigest(t *testing.T) {
	withoutOpts, err := PayloadDigestAI([]byte("m"), []byte("p"), nil, false)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	withEmptyOpts, err := PayloadDigestAI([]byte("m"), []byte("p"), nil, true)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if withoutOpts == withEmptyOpts {
		t.Fatalf("presence flag did not affect digest")
	}
}

func TestPayloadDigestQuantum_ShotsAffectDigest(t *testing.T) {
	d1, err := PayloadDigestQuantum([]byte("circuit"), 10, nil, false)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	d2, err := PayloadDigestQuantum([]byte("circuit"), 20, nil, false)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if d1 == d2 {
		t.Fatalf("shots count did not affect digest")
	}
}
