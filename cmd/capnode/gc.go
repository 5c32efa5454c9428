package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rubin.dev/capcore/config"
	"rubin.dev/capcore/store"
)

func newGCCmd(flags *rootFlags) *cobra.Command {
	var height uint64
	var retention uint64

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Prune result records (and their jobs) past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGC(cmd.OutOrStdout(), flags, height, retention)
		},
	}
	cmd.Flags().Uint64Var(&height, "height", 0, "current chain height to prune relative to (required)")
	cmd.Flags().Uint64Var(&retention, "retention", 0, "override retention_blocks from the default config (0 = use default)")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func runGC(stdout io.Writer, flags *rootFlags, height, retentionOverride uint64) error {
	db, err := store.Open(flags.datadir, flags.chainHex)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	cfg := config.Default()
	retention := cfg.RetentionBlocks
	if retentionOverride > 0 {
		retention = retentionOverride
	}

	pruned, err := db.GC(height, retention)
	if err != nil {
		return fmt.Errorf("gc: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "gc: pruned=%d height=%d retention_blocks=%d\n", pruned, height, retention)
	return nil
}
