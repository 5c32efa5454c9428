package idderive

import "rubin.dev/capcore/cborcanon"

// AIPayloadFields is the canonical input to PayloadDigest for an AI
// enqueue: model bytes, prompt bytes, and an optional opts CBOR blob
// (already validated canonical by the caller). Field order here is
// structural (cbor:",toarray") so the digest depends only on content, never
// on map key ordering the caller might otherwise choose.
type AIPayloadFields struct {
	_        struct{} `cbor:",toarray"`
	Model    []byte
	Prompt   []byte
	OptsCBOR []byte // empty when opts were omitted
	HasOpts  bool
}

// QuantumPayloadFields is the canonical input to PayloadDigest for a
// quantum enqueue: circuit CBOR, shot count, and an optional opts CBOR blob.
type QuantumPayloadFields struct {
	_        struct{} `cbor:",toarray"`
	Circuit  []byte
	Shots    uint64
	OptsCBOR []byte
	HasOpts  bool
}

// PayloadDigestAI normalizes an AI enqueue payload into a canonical byte
// sequence and hashes it. Callers must have already confirmed any supplied
// opts blob is canonical CBOR (cborcanon.IsCanonical) before calling this;
// PayloadDigestAI does not itself re-validate canonicity, only determinism
// of its own encoding of the already-validated fields.
func PayloadDigestAI(model, prompt, opts []byte, hasOpts bool) ([32]byte, error) {
	fields := AIPayloadFields{Model: model, Prompt: prompt, OptsCBOR: opts, HasOpts: hasOpts}
	b, err := cborcanon.Marshal(fields)
	if err != nil {
		return [32]byte{}, err
	}
	return sum256(b), nil
}

// PayloadDigestQuantum normalizes a quantum enqueue payload the same way.
func PayloadDigestQuantum(circuit []byte, shots uint64, opts []byte, hasOpts bool) ([32]byte, error) {
	fields := QuantumPayloadFields{Circuit: circuit, Shots: shots, OptsCBOR: opts, HasOpts: hasOpts}
	b, err := cborcanon.Marshal(fields)
	if err != nil {
		return [32]byte{}, err
	}
	return sum256(b), nil
}
