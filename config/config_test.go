package config

import "testing"

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidate_RetentionMustCoverTTL(t *testing.T) {
	cfg := Default()
	cfg.ResultTTLBlocks = 100
	cfg.RetentionBlocks = 50
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error when retention_blocks < result_ttl_blocks")
	}
}

func TestValidate_RejectsZeroQueueDepth(t *testing.T) {
	cfg := Default()
	cfg.MaxQueueDepth = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for zero max_queue_depth")
	}
}

func TestNamespaceAllowed(t *testing.T) {
	cfg := Config{AllowedNamespaces: []NamespaceRange{{Low: 10, High: 20}}}
	if !cfg.NamespaceAllowed(15) {
		t.Fatalf("expected namespace 15 to be allowed")
	}
	if cfg.NamespaceAllowed(25) {
		t.Fatalf("expected namespace 25 to be rejected")
	}
}

func TestModelAllowed_EmptyAllowlistIsUnrestricted(t *testing.T) {
	cfg := Config{}
	if !cfg.ModelAllowed([32]byte{1, 2, 3}) {
		t.Fatalf("expected empty allowlist to permit any model")
	}
}

func TestModelAllowed_NonEmptyEnforces(t *testing.T) {
	allowed := [32]byte{9}
	cfg := Config{ModelAllowlist: []AllowlistEntry{{Name: "demo", Digest: allowed}}}
	if !cfg.ModelAllowed(allowed) {
		t.Fatalf("expected allowlisted digest to be accepted")
	}
	if cfg.ModelAllowed([32]byte{1}) {
		t.Fatalf("expected non-allowlisted digest to be rejected")
	}
}
