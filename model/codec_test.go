package model

import (
	"reflect"
	"testing"
)

func TestJobRequestRoundTrip(t *testing.T) {
	in := JobRequest{
		TaskID:         [32]byte{1, 2, 3},
		Kind:           JobKindAI,
		Caller:         []byte{0xaa},
		HeightEnqueued: 100,
		PayloadDigest:  [32]byte{4, 5},
		ReservedUnits:  120,
		OptsDigest:     [32]byte{6},
		InputSize:      42,
	}
	b, err := EncodeJobRequest(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if b[0] != SchemaVersion {
		t.Fatalf("missing schema version prefix")
	}
	out, err := DecodeJobRequest(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestResultRecordRoundTrip(t *testing.T) {
	in := ResultRecord{
		TaskID:            [32]byte{9},
		Status:            ResultStatusOK,
		OutputBytes:       []byte("hello"),
		Metrics:           ProofMetrics{Units: 120, QoSBucket: 15, LatencyBucket: 3},
		ProofRef:          [32]byte{7},
		FinalizedAtHeight: 101,
		Nullifier:         [32]byte{8},
	}
	b, err := EncodeResultRecord(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeResultRecord(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out.OutputBytes) != string(in.OutputBytes) || out.Status != in.Status {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestDecodeJobRequest_WrongSchemaVersion(t *testing.T) {
	b, err := EncodeJobRequest(JobRequest{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b[0] = SchemaVersion + 1
	if _, err := DecodeJobRequest(b); err == nil {
		t.Fatalf("expected schema version error")
	}
}

func TestDecodeEvidenceEnvelope_RejectsNonCanonical(t *testing.T) {
	if _, err := DecodeEvidenceEnvelope([]byte{0x18, 0x01}); err == nil {
		t.Fatalf("expected non-canonical rejection")
	}
}

func TestBucketizeLinear_Boundaries(t *testing.T) {
	if got := BucketizeLinear(0, 100); got != 0 {
		t.Fatalf("expected bucket 0, got %d", got)
	}
	if got := BucketizeLinear(100, 100); got != BucketCount-1 {
		t.Fatalf("expected top bucket for value==max, got %d", got)
	}
	if got := BucketizeLinear(1000, 100); got != BucketCount-1 {
		t.Fatalf("expected top bucket for value>max, got %d", got)
	}
	if got := BucketizeLinear(5, 0); got != 0 {
		t.Fatalf("expected bucket 0 for max==0, got %d", got)
	}
}
