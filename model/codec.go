package model

import "rubin.dev/capcore/cborcanon"

// SchemaVersion is the single-byte prefix carried by every persisted value,
// per spec.md §6 ("Schema versioning is carried in a single-byte prefix per
// value"). Bumping it is a storage-format migration, not a hash-domain
// change.
const SchemaVersion byte = 1

// EncodeJobRequest canonically encodes a JobRequest with its version
// prefix.
func EncodeJobRequest(r JobRequest) ([]byte, error) {
	return encodeVersioned(r)
}

// DecodeJobRequest decodes and validates the canonical encoding produced by
// EncodeJobRequest.
func DecodeJobRequest(b []byte) (JobRequest, error) {
	var r JobRequest
	err := decodeVersioned(b, &r)
	return r, err
}

// EncodeResultRecord canonically encodes a ResultRecord with its version
// prefix.
func EncodeResultRecord(r ResultRecord) ([]byte, error) {
	return encodeVersioned(r)
}

// DecodeResultRecord decodes and validates the canonical encoding produced
// by EncodeResultRecord.
func DecodeResultRecord(b []byte) (ResultRecord, error) {
	var r ResultRecord
	err := decodeVersioned(b, &r)
	return r, err
}

// EncodeJobReceipt canonically encodes a JobReceipt (the enqueue syscall
// return value). Receipts are never persisted, so they carry no version
// prefix — only store.* values do.
func EncodeJobReceipt(r JobReceipt) ([]byte, error) {
	return cborcanon.Marshal(r)
}

// DecodeEvidenceEnvelope decodes and validates an evidence envelope pulled
// from a block. Envelopes are never persisted as-is, so no version prefix.
func DecodeEvidenceEnvelope(b []byte) (EvidenceEnvelope, error) {
	var e EvidenceEnvelope
	err := cborcanon.ValidateCanonical(b, &e)
	return e, err
}

func encodeVersioned(v any) ([]byte, error) {
	body, err := cborcanon.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(body))
	out = append(out, SchemaVersion)
	return append(out, body...), nil
}

func decodeVersioned(b []byte, v any) error {
	if len(b) == 0 {
		return cborcanon.ErrNotCanonical
	}
	version, body := b[0], b[1:]
	if version != SchemaVersion {
		return &UnsupportedSchemaVersionError{Got: version, Want: SchemaVersion}
	}
	return cborcanon.ValidateCanonical(body, v)
}

// UnsupportedSchemaVersionError is returned when a persisted value's
// version-byte prefix does not match the version this binary understands.
type UnsupportedSchemaVersionError struct {
	Got, Want byte
}

func (e *UnsupportedSchemaVersionError) Error() string {
	return "model: unsupported schema version"
}
