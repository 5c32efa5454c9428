// Package config defines the capability layer's consensus-visible
// configuration surface: feature flags, size caps, timing windows, gas
// schedule, and policy allowlists. Every field here is, per spec.md §6,
// "consensus-visible and governed externally" — changing a value changes
// what honest nodes accept, so loading and validating it follows the same
// pattern as the node's own Config (flat struct, Default, Validate).
package config

import (
	"fmt"
)

// NamespaceRange is an inclusive [Low, High] range of allowed blob
// namespaces.
type NamespaceRange struct {
	Low, High uint32
}

func (r NamespaceRange) contains(ns uint32) bool { return ns >= r.Low && ns <= r.High }

// AllowlistEntry names an allowed model/circuit by an opaque identifier and
// a digest of its expected bytes, so the allowlist itself is consensus data
// without embedding the (potentially large) model/circuit payload.
type AllowlistEntry struct {
	Name   string
	Digest [32]byte
}

// Config is the full capability-layer configuration surface.
type Config struct {
	EnableAI     bool
	EnableQuantum bool
	EnableBlob   bool
	EnableZK     bool
	EnableRandom bool

	BlobPinMax    uint32
	AIModelMax    uint32
	AIPromptMax   uint32
	AIOptsMax     uint32
	QCircuitMax   uint32
	QMaxShots     uint32
	QOptsMax      uint32
	ZKCircuitMax  uint32
	ZKProofMax    uint32
	ZKInputMax    uint32
	ReadResultMax uint32
	RandMaxBytes  uint32
	MaxQueueDepth uint32

	ResultTTLBlocks  uint64
	RetentionBlocks  uint64
	NullWindowBlocks uint64

	GasBaseBlob      uint64
	GasPerByteBlob   uint64
	GasBaseAIEnqueue uint64
	GasPerByteAI     uint64
	GasBaseQEnqueue  uint64
	GasPerByteQ      uint64
	GasBaseZK        uint64
	GasPerByteZK     uint64
	GasZKSuccessMult uint64
	GasBaseRandom    uint64
	GasPerByteRandom uint64

	AllowedNamespaces []NamespaceRange
	ModelAllowlist    []AllowlistEntry
	CircuitAllowlist  []AllowlistEntry
}

// Default returns a conservative, internally-consistent configuration
// suitable for a devnet. Every flag, cap, window, gas price and namespace
// range is explicit here so a change to Default is always a reviewable
// diff; the model and circuit allowlists are left empty, which means
// unrestricted.
func Default() Config {
	return Config{
		EnableAI: true, EnableQuantum: true, EnableBlob: true, EnableZK: true, EnableRandom: true,

		BlobPinMax:    1 << 20, // 1 MiB
		AIModelMax:    1 << 16,
		AIPromptMax:   1 << 14,
		AIOptsMax:     1 << 12,
		QCircuitMax:   1 << 16,
		QMaxShots:     1 << 16,
		QOptsMax:      1 << 12,
		ZKCircuitMax:  1 << 16,
		ZKProofMax:    1 << 13,
		ZKInputMax:    1 << 13,
		ReadResultMax: 1 << 16,
		RandMaxBytes:  4096,
		MaxQueueDepth: 100_000,

		ResultTTLBlocks:  50,
		RetentionBlocks:  10_000,
		NullWindowBlocks: 50,

		GasBaseBlob: 5_000, GasPerByteBlob: 8,
		GasBaseAIEnqueue: 10_000, GasPerByteAI: 4,
		GasBaseQEnqueue: 10_000, GasPerByteQ: 4,
		GasBaseZK: 20_000, GasPerByteZK: 6, GasZKSuccessMult: 2,
		GasBaseRandom: 1_000, GasPerByteRandom: 2,

		AllowedNamespaces: []NamespaceRange{{Low: 0, High: 1 << 16}},
	}
}

// Validate checks internal consistency of cfg, rejecting configurations
// that could cause the node to behave non-deterministically or
// inconsistently with spec.md's invariants.
func Validate(cfg Config) error {
	if cfg.RetentionBlocks < cfg.ResultTTLBlocks {
		return fmt.Errorf("config: retention_blocks (%d) must be >= result_ttl_blocks (%d), else a resolved job could be pruned before its TTL record would even be written", cfg.RetentionBlocks, cfg.ResultTTLBlocks)
	}
	if cfg.MaxQueueDepth == 0 {
		return fmt.Errorf("config: max_queue_depth must be > 0")
	}
	if cfg.RandMaxBytes == 0 {
		return fmt.Errorf("config: rand_max_bytes must be > 0")
	}
	for _, r := range cfg.AllowedNamespaces {
		if r.Low > r.High {
			return fmt.Errorf("config: invalid namespace range [%d, %d]", r.Low, r.High)
		}
	}
	return nil
}

// NamespaceAllowed reports whether ns falls within any configured
// allowed-namespace range.
func (c Config) NamespaceAllowed(ns uint32) bool {
	for _, r := range c.AllowedNamespaces {
		if r.contains(ns) {
			return true
		}
	}
	return false
}

// ModelAllowed reports whether digest matches a configured model allowlist
// entry. An empty allowlist means unrestricted (every model accepted);
// configuring at least one entry switches to strict allowlist enforcement.
func (c Config) ModelAllowed(digest [32]byte) bool {
	if len(c.ModelAllowlist) == 0 {
		return true
	}
	for _, e := range c.ModelAllowlist {
		if e.Digest == digest {
			return true
		}
	}
	return false
}

// CircuitAllowed reports whether digest matches a configured circuit
// allowlist entry, with the same empty-means-unrestricted convention as
// ModelAllowed.
func (c Config) CircuitAllowed(digest [32]byte) bool {
	if len(c.CircuitAllowlist) == 0 {
		return true
	}
	for _, e := range c.CircuitAllowlist {
		if e.Digest == digest {
			return true
		}
	}
	return false
}
