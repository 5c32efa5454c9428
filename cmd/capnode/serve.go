package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rubin.dev/capcore/blob"
	"rubin.dev/capcore/capsyscall"
	"rubin.dev/capcore/cborcanon"
	"rubin.dev/capcore/config"
	"rubin.dev/capcore/idderive"
	"rubin.dev/capcore/internal/obs"
	"rubin.dev/capcore/model"
	"rubin.dev/capcore/resolver"
	"rubin.dev/capcore/store"
	"rubin.dev/capcore/treasury"
	"rubin.dev/capcore/verify"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var demoBlocks int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open the capability store, wire the provider, and (optionally) run a demo sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.OutOrStdout(), cmd.ErrOrStderr(), flags, demoBlocks)
		},
	}
	cmd.Flags().IntVar(&demoBlocks, "demo-blocks", 0, "run N demo blocks against an in-memory harness exercising enqueue -> resolve -> read_result, then exit")
	return cmd
}

func runServe(stdout, stderr io.Writer, flags *rootFlags, demoBlocks int) error {
	logger := obs.New(flags.logLevel, stderr)

	chainID, err := parseChainID(flags.chainHex)
	if err != nil {
		return err
	}

	db, err := store.Open(flags.datadir, flags.chainHex)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	cfg := config.Default()
	if err := config.Validate(cfg); err != nil {
		return &usageError{fmt.Errorf("invalid config: %w", err)}
	}
	if err := printConfig(stdout, cfg); err != nil {
		return fmt.Errorf("print config: %w", err)
	}

	tr := treasury.NewInMemory(1 << 32)
	provider := &capsyscall.Provider{
		Config:   cfg,
		Store:    db,
		Blob:     blob.MerkleAdapter{},
		ZK:       verify.Groth16BN254{},
		Treasury: tr,
		Logger:   logger,
	}
	res := &resolver.Resolver{
		Registry: resolver.VerifierRegistry{
			model.EnvelopeKindAI:      demoAlwaysOKVerifier,
			model.EnvelopeKindQuantum: demoAlwaysOKVerifier,
		},
		Stores:           db,
		ChainID:          chainID,
		TTLBlocks:        cfg.ResultTTLBlocks,
		NullWindowBlocks: cfg.NullWindowBlocks,
		Treasury:         tr,
	}

	logger.Info().Str("datadir", db.ChainDir()).Msg("capability store opened")

	if demoBlocks > 0 {
		return runDemo(stdout, logger, provider, res, chainID, demoBlocks)
	}

	_, _ = fmt.Fprintln(stdout, "capnode serve: store opened, no --demo-blocks given, exiting")
	return nil
}

// demoAlwaysOKVerifier stands in for a real AI/Quantum attestation
// verifier, which is an external collaborator per spec.md §1 ("only its
// assignment/attestation output is consumed"); it exists purely so `serve
// --demo-blocks` can exercise the full enqueue -> resolve -> read_result
// path without a live compute fabric attached.
func demoAlwaysOKVerifier(job model.JobRequest, body []byte) (model.ResultStatus, []byte, model.ProofMetrics, error) {
	return model.ResultStatusOK, []byte("demo output"), model.ProofMetrics{
		Units:         job.ReservedUnits,
		QoSBucket:     model.BucketizeLinear(98, 100),
		LatencyBucket: model.BucketizeLinear(5, 100),
	}, nil
}

// runDemo walks Scenario A of spec.md §8 end to end: enqueue an AI job at
// height H, resolve it with a matching evidence envelope at H+1, read the
// record back, and print one summary line (task_id, resolving height,
// encoded record length), repeated for demoBlocks iterations.
func runDemo(stdout io.Writer, logger zerolog.Logger, provider *capsyscall.Provider, res *resolver.Resolver, chainID [32]byte, demoBlocks int) error {
	for i := 0; i < demoBlocks; i++ {
		height := uint64(100 + i*2)
		call := capsyscall.CallContext{
			ChainID:       chainID,
			Height:        height,
			TxHash:        [32]byte{byte(i + 1)},
			Caller:        []byte{0xaa, 0xaa},
			CorrelationID: uuid.New().String(),
		}
		logger.Debug().Int("iteration", i).Uint64("height", height).Msg("running demo block")

		receiptCBOR, err := provider.AIEnqueue(call, []byte("demo"), []byte("count to 5"), nil, false)
		if err != nil {
			return fmt.Errorf("demo block %d: enqueue: %w", i, err)
		}
		var receipt model.JobReceipt
		if err := cborcanon.Unmarshal(receiptCBOR, &receipt); err != nil {
			return fmt.Errorf("demo block %d: decode receipt: %w", i, err)
		}

		body := append([]byte{}, receipt.TaskID[:]...)
		domain, _ := idderive.NullifierDomainForKind("AI")
		resolveHeight := height + 1
		// The nullifier is defined over the job's height_enqueued (height,
		// the block AIEnqueue ran in), not the block that resolves it.
		env := model.EvidenceEnvelope{
			TypeID:    uint16(model.EnvelopeKindAI),
			Body:      body,
			Nullifier: idderive.Nullifier(domain, chainID, uint16(model.EnvelopeKindAI), height, body),
		}
		if err := res.ApplyBlock(resolveHeight, []model.EvidenceEnvelope{env}); err != nil {
			return fmt.Errorf("demo block %d: resolve: %w", i, err)
		}

		recordCBOR, err := provider.ReadResult(receipt.TaskID)
		if err != nil {
			return fmt.Errorf("demo block %d: read_result: %w", i, err)
		}
		_, _ = fmt.Fprintf(stdout, "demo: task_id=%x resolved at height=%d record_bytes=%d\n", receipt.TaskID, resolveHeight, len(recordCBOR))
	}
	return nil
}
