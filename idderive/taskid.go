package idderive

// TaskID derives the 32-byte deterministic identifier of an enqueued job:
//
//	H(domain || chain_id || height || tx_hash || caller_addr || payload_digest)
//
// chainID and txHash are 32 bytes each; caller is a variable-width address
// and is length-prefixed. height is encoded as a fixed 8-byte big-endian
// field (not length-prefixed — its width never varies). The result is
// unique per (chain, height, tx, caller, payload) tuple under the hash
// assumption.
func TaskID(domain DomainTag, chainID [32]byte, height uint64, txHash [32]byte, caller []byte, payloadDigest [32]byte) [32]byte {
	buf := make([]byte, 0, 1+32+8+32+4+len(caller)+32)
	buf = append(buf, byte(domain))
	buf = append(buf, chainID[:]...)
	buf = putUint64BE(buf, height)
	buf = append(buf, txHash[:]...)
	buf = lp(buf, caller)
	buf = append(buf, payloadDigest[:]...)
	return sum256(buf)
}

// Nullifier derives the 32-byte replay-protection tag of an evidence
// envelope. The envelope's producer and the Resolver's recomputation must
// pass the SAME domain, chainID, typeID, heightHint (the job's
// height_enqueued), and canonical body bytes for the values to match. The
// enqueue syscalls do not derive a nullifier for the job itself.
//
//	H(domain || chain_id || type_id || height_hint || canonical_body_bytes)
func Nullifier(domain DomainTag, chainID [32]byte, typeID uint16, heightHint uint64, canonicalBody []byte) [32]byte {
	buf := make([]byte, 0, 1+32+2+8+4+len(canonicalBody))
	buf = append(buf, byte(domain))
	buf = append(buf, chainID[:]...)
	buf = append(buf, byte(typeID>>8), byte(typeID))
	buf = putUint64BE(buf, heightHint)
	buf = lp(buf, canonicalBody)
	return sum256(buf)
}
