package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rubin.dev/capcore/store"
)

func newInspectCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <task_id_hex>",
		Short: "Read-only dump of a task_id's job and result, for the thin RPC observer role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), flags, args[0])
		},
	}
	return cmd
}

func runInspect(stdout io.Writer, flags *rootFlags, taskIDHex string) error {
	raw, err := hex.DecodeString(taskIDHex)
	if err != nil || len(raw) != 32 {
		return &usageError{fmt.Errorf("task_id must be 64 hex characters (32 bytes)")}
	}
	var taskID [32]byte
	copy(taskID[:], raw)

	db, err := store.Open(flags.datadir, flags.chainHex)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	job, jobOK, err := db.GetJob(taskID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if !jobOK {
		_, _ = fmt.Fprintf(stdout, "inspect: task_id=%s not found\n", taskIDHex)
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "job: kind=%s caller=%x height_enqueued=%d reserved_units=%d\n",
		job.Kind, job.Caller, job.HeightEnqueued, job.ReservedUnits)

	rec, resultOK, err := db.GetResult(taskID)
	if err != nil {
		return fmt.Errorf("get result: %w", err)
	}
	if !resultOK {
		_, _ = fmt.Fprintln(stdout, "result: none yet")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "result: status=%s finalized_at_height=%d output_len=%d units=%d\n",
		rec.Status, rec.FinalizedAtHeight, len(rec.OutputBytes), rec.Metrics.Units)
	return nil
}
