package main

import (
	"bytes"
	"testing"
)

func TestRun_ServeWithNoDemoBlocksPrintsConfigAndExits0(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"serve", "--datadir", dir}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if out.Len() == 0 {
		t.Fatalf("expected config output on stdout")
	}
}

func TestRun_ServeDemoBlocksResolvesAndPrintsResult(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"serve", "--datadir", dir, "--demo-blocks", "2"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("demo: task_id=")) {
		t.Fatalf("expected demo output, got %q", out.String())
	}
}

func TestRun_InvalidChainIDIsUsageError(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"serve", "--datadir", dir, "--chain-id", "not-hex"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2 for invalid chain-id, got %d (stderr=%q)", code, errOut.String())
	}
}

func TestRun_GCRequiresHeightFlag(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"gc", "--datadir", dir}, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1 when --height is missing, got %d (stderr=%q)", code, errOut.String())
	}
}

func TestRun_GCRunsAgainstEmptyStore(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"gc", "--datadir", dir, "--height", "1000"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("pruned=0")) {
		t.Fatalf("expected pruned=0 on an empty store, got %q", out.String())
	}
}

func TestRun_InspectUnknownTaskID(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	taskID := "0000000000000000000000000000000000000000000000000000000000000001"
	code := run([]string{"inspect", "--datadir", dir, taskID}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("not found")) {
		t.Fatalf("expected not-found output, got %q", out.String())
	}
}

func TestRun_InspectRejectsMalformedTaskID(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"inspect", "--datadir", dir, "zz"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2 for malformed task_id, got %d (stderr=%q)", code, errOut.String())
	}
}

func TestRun_UnknownSubcommandFails(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"not-a-real-subcommand"}, &out, &errOut)
	if code == 0 {
		t.Fatalf("expected a non-zero exit code for an unknown subcommand")
	}
	if errOut.Len() == 0 {
		t.Fatalf("expected an error message on stderr")
	}
}
