package verify

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Groth16BN254 is a reference ZkVerifier built directly on gnark-crypto's
// bn254 pairing primitives rather than the full gnark frontend: there is no
// compiled circuit here, only the textbook pairing check
//
//	e(A,B) = e(alpha,beta) * e(vk_x,gamma) * e(C,delta)
//
// where vk_x = IC[0] + sum_i IC[i+1]*public_input[i]. This keeps the
// predicate pure and its cost linear in the number of public inputs, which
// is what spec.md §4.5 charges gas for.
type Groth16BN254 struct{}

// verifyingKey is the decoded wire form of a circuit's Groth16 verifying
// key: alpha/beta/gamma/delta plus one IC point per public input, plus one
// for the constant term.
type verifyingKey struct {
	Alpha bn254.G1Affine
	Beta  bn254.G2Affine
	Gamma bn254.G2Affine
	Delta bn254.G2Affine
	IC    []bn254.G1Affine
}

// proof is the decoded wire form of a Groth16 proof: the A/C points in G1
// and the B point in G2.
type proof struct {
	A bn254.G1Affine
	B bn254.G2Affine
	C bn254.G1Affine
}

const (
	g1CompressedSize = 32
	g2CompressedSize = 64
	frSize           = 32
)

// decodeVerifyingKey parses circuit as:
//
//	alpha(32) || beta(64) || gamma(64) || delta(64) || n_ic(4, BE) || ic[n_ic](32 each)
func decodeVerifyingKey(circuit []byte) (verifyingKey, error) {
	var vk verifyingKey
	off := 0

	readG1 := func() (bn254.G1Affine, error) {
		var p bn254.G1Affine
		if off+g1CompressedSize > len(circuit) {
			return p, fmt.Errorf("verify: truncated G1 point in circuit")
		}
		if _, err := p.SetBytes(circuit[off : off+g1CompressedSize]); err != nil {
			return p, fmt.Errorf("verify: invalid G1 point: %w", err)
		}
		off += g1CompressedSize
		return p, nil
	}
	readG2 := func() (bn254.G2Affine, error) {
		var p bn254.G2Affine
		if off+g2CompressedSize > len(circuit) {
			return p, fmt.Errorf("verify: truncated G2 point in circuit")
		}
		if _, err := p.SetBytes(circuit[off : off+g2CompressedSize]); err != nil {
			return p, fmt.Errorf("verify: invalid G2 point: %w", err)
		}
		off += g2CompressedSize
		return p, nil
	}

	var err error
	if vk.Alpha, err = readG1(); err != nil {
		return vk, err
	}
	if vk.Beta, err = readG2(); err != nil {
		return vk, err
	}
	if vk.Gamma, err = readG2(); err != nil {
		return vk, err
	}
	if vk.Delta, err = readG2(); err != nil {
		return vk, err
	}

	if off+4 > len(circuit) {
		return vk, fmt.Errorf("verify: truncated circuit: missing ic count")
	}
	n := binary.BigEndian.Uint32(circuit[off : off+4])
	off += 4
	if n == 0 {
		return vk, fmt.Errorf("verify: circuit must declare at least one IC point")
	}

	vk.IC = make([]bn254.G1Affine, n)
	for i := range vk.IC {
		p, err := readG1()
		if err != nil {
			return vk, err
		}
		vk.IC[i] = p
	}
	if off != len(circuit) {
		return vk, fmt.Errorf("verify: trailing bytes after circuit ic array")
	}
	return vk, nil
}

// decodeProof parses proof bytes as A(32) || B(64) || C(32).
func decodeProof(raw []byte) (proof, error) {
	var pr proof
	want := g1CompressedSize + g2CompressedSize + g1CompressedSize
	if len(raw) != want {
		return pr, fmt.Errorf("verify: proof must be exactly %d bytes, got %d", want, len(raw))
	}
	off := 0
	if _, err := pr.A.SetBytes(raw[off : off+g1CompressedSize]); err != nil {
		return pr, fmt.Errorf("verify: invalid proof.A: %w", err)
	}
	off += g1CompressedSize
	if _, err := pr.B.SetBytes(raw[off : off+g2CompressedSize]); err != nil {
		return pr, fmt.Errorf("verify: invalid proof.B: %w", err)
	}
	off += g2CompressedSize
	if _, err := pr.C.SetBytes(raw[off : off+g1CompressedSize]); err != nil {
		return pr, fmt.Errorf("verify: invalid proof.C: %w", err)
	}
	return pr, nil
}

// decodePublicInputs parses publicInput as a flat array of big-endian
// 32-byte BN254 scalar field elements.
func decodePublicInputs(raw []byte) ([]fr.Element, error) {
	if len(raw)%frSize != 0 {
		return nil, fmt.Errorf("verify: public_input length %d is not a multiple of %d", len(raw), frSize)
	}
	n := len(raw) / frSize
	out := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		out[i].SetBytes(raw[i*frSize : (i+1)*frSize])
	}
	return out, nil
}

// Verify implements ZkVerifier. It returns ok=false (not an error) for a
// structurally valid proof that simply fails the pairing check; it returns
// a non-nil error only for malformed circuit/proof/public_input bytes,
// which the caller surfaces as AttestationError rather than a silent false.
func (Groth16BN254) Verify(circuit, proofBytes, publicInput []byte) (Result, error) {
	units := uint64(len(circuit)+len(proofBytes)+len(publicInput)) * 2

	vk, err := decodeVerifyingKey(circuit)
	if err != nil {
		return Result{}, err
	}
	pr, err := decodeProof(proofBytes)
	if err != nil {
		return Result{}, err
	}
	inputs, err := decodePublicInputs(publicInput)
	if err != nil {
		return Result{}, err
	}
	if len(inputs) != len(vk.IC)-1 {
		return Result{}, fmt.Errorf("verify: expected %d public inputs, got %d", len(vk.IC)-1, len(inputs))
	}

	vkx := vk.IC[0]
	for i, x := range inputs {
		var xBig big.Int
		x.BigInt(&xBig)
		var term bn254.G1Affine
		term.ScalarMultiplication(&vk.IC[i+1], &xBig)
		vkx.Add(&vkx, &term)
	}

	var negAlpha, negVkx, negC bn254.G1Affine
	negAlpha.Neg(&vk.Alpha)
	negVkx.Neg(&vkx)
	negC.Neg(&pr.C)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{pr.A, negAlpha, negVkx, negC},
		[]bn254.G2Affine{pr.B, vk.Beta, vk.Gamma, vk.Delta},
	)
	if err != nil {
		return Result{}, fmt.Errorf("verify: pairing check: %w", err)
	}
	return Result{OK: ok, Units: units}, nil
}
