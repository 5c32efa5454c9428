package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rubin.dev/capcore/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// rootFlags are the persistent flags every subcommand shares: where the
// store lives, which chain it belongs to, and how loud to log.
type rootFlags struct {
	datadir  string
	chainHex string
	logLevel string
}

// run builds the cobra command tree, wires stdout/stderr for testability
// (matching the teacher's own run(args, stdout, stderr) int convention),
// and maps cobra's error return into a process exit code: 2 for a
// *usageError (malformed --chain-id or task_id, invalid config), 1 for any
// other failure including cobra's own flag errors such as a missing
// required flag, 0 on success.
func run(args []string, stdout, stderr io.Writer) int {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "capnode",
		Short:         "Deterministic capability-layer node tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&flags.datadir, "datadir", "./capcore-data", "capability store data directory")
	root.PersistentFlags().StringVar(&flags.chainHex, "chain-id", "0000000000000000000000000000000000000000000000000000000000000001", "32-byte chain id, hex-encoded")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug|info|warn|error")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newGCCmd(flags))
	root.AddCommand(newInspectCmd(flags))

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

// usageError wraps a malformed user-supplied value (invalid hex for
// --chain-id or a task_id, an invalid config) so run can tell it apart from
// a runtime failure deeper in a subcommand (store open failure, etc.).
// cobra's own flag-parsing errors are not wrapped and exit with 1.
type usageError struct{ err error }

func (u *usageError) Error() string { return u.err.Error() }
func (u *usageError) Unwrap() error { return u.err }

func isUsageError(err error) bool {
	_, ok := err.(*usageError)
	return ok
}

func parseChainID(hexStr string) ([32]byte, error) {
	var id [32]byte
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return id, &usageError{fmt.Errorf("invalid --chain-id: %w", err)}
	}
	if len(b) != 32 {
		return id, &usageError{fmt.Errorf("--chain-id must decode to exactly 32 bytes, got %d", len(b))}
	}
	copy(id[:], b)
	return id, nil
}

func printConfig(w io.Writer, cfg config.Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
