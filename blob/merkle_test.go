package blob

import (
	"context"
	"testing"

	"golang.org/x/crypto/sha3"

	"rubin.dev/capcore/idderive"
)

func TestMerkleAdapter_Pin_SingleLeaf(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i)
	}

	got, size, err := MerkleAdapter{}.Pin(context.Background(), 7, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != uint64(len(data)) {
		t.Fatalf("size = %d, want %d", size, len(data))
	}

	want := leafHash(7, data)
	if got != Commitment(want) {
		t.Fatalf("commitment mismatch for single leaf")
	}
}

func TestMerkleAdapter_Pin_TwoLeaves(t *testing.T) {
	data := make([]byte, leafSize+1)
	for i := range data {
		data[i] = byte(i)
	}

	got, _, err := MerkleAdapter{}.Pin(context.Background(), 3, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leaf1 := leafHash(3, data[:leafSize])
	leaf2 := leafHash(3, data[leafSize:])

	var nodePre [1 + 32 + 32]byte
	nodePre[0] = byte(idderive.DomainBlobCommitmentNode)
	copy(nodePre[1:33], leaf1[:])
	copy(nodePre[33:], leaf2[:])
	want := sha3.Sum256(nodePre[:])

	if got != Commitment(want) {
		t.Fatalf("commitment mismatch for two leaves")
	}
}

func TestMerkleAdapter_Pin_OddLeafCountPromotesLastLeaf(t *testing.T) {
	data := make([]byte, leafSize*2+1)
	for i := range data {
		data[i] = byte(i)
	}

	got, _, err := MerkleAdapter{}.Pin(context.Background(), 1, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leaf1 := leafHash(1, data[:leafSize])
	leaf2 := leafHash(1, data[leafSize:2*leafSize])
	leaf3 := leafHash(1, data[2*leafSize:])

	var nodePre [1 + 32 + 32]byte
	nodePre[0] = byte(idderive.DomainBlobCommitmentNode)
	copy(nodePre[1:33], leaf1[:])
	copy(nodePre[33:], leaf2[:])
	inner := sha3.Sum256(nodePre[:])

	var rootPre [1 + 32 + 32]byte
	rootPre[0] = byte(idderive.DomainBlobCommitmentNode)
	copy(rootPre[1:33], inner[:])
	copy(rootPre[33:], leaf3[:])
	want := sha3.Sum256(rootPre[:])

	if got != Commitment(want) {
		t.Fatalf("commitment mismatch for odd leaf count promotion")
	}
}

func TestMerkleAdapter_Pin_EmptyDataIsDeterministic(t *testing.T) {
	a, _, err := MerkleAdapter{}.Pin(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, err := MerkleAdapter{}.Pin(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("empty-data commitment must be deterministic")
	}
}

func TestMerkleAdapter_Pin_NamespaceIsDomainSeparated(t *testing.T) {
	data := []byte("same bytes, different namespace")

	a, _, err := MerkleAdapter{}.Pin(context.Background(), 1, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, err := MerkleAdapter{}.Pin(context.Background(), 2, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatalf("commitments for distinct namespaces must not collide")
	}
}
