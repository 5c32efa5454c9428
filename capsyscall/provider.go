// Package capsyscall implements the SyscallProvider: the single dispatch
// point the VM calls into for blob_pin, ai_enqueue, quantum_enqueue,
// read_result, zk_verify, and random. Every entry point other than
// read_result re-validates its feature flag and size caps against its own
// config.Config snapshot and charges gas; structured inputs (opts CBOR) are
// checked for canonical encoding. Gas already debited when a later check
// fails (for example blob_pin's base fee) is not refunded.
package capsyscall

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rubin.dev/capcore/blob"
	"rubin.dev/capcore/cborcanon"
	"rubin.dev/capcore/config"
	"rubin.dev/capcore/idderive"
	"rubin.dev/capcore/model"
	"rubin.dev/capcore/prng"
	"rubin.dev/capcore/treasury"
	"rubin.dev/capcore/verify"
)

// Backend is the narrow persistence surface Provider needs. *store.DB
// satisfies it; tests supply a smaller fake so capsyscall tests don't open
// a real bbolt file.
type Backend interface {
	PutJob(model.JobRequest) error
	GetResult(taskID [32]byte) (model.ResultRecord, bool, error)
	QueueDepth() (int, error)
}

// CallContext carries the consensus inputs common to every syscall
// invocation within a single transaction: the block/tx identity random and
// task-id derivation hash over, and the beacon-presence flag PRNG needs.
//
// CorrelationID is an opaque, caller-assigned google/uuid v4 string used
// for nothing but log correlation: Provider never derives consensus state
// from it, never persists it, and tolerates it being empty or malformed
// (a bad value is logged and otherwise ignored, never rejected).
type CallContext struct {
	ChainID        [32]byte
	Height         uint64
	TxHash         [32]byte
	Caller         []byte
	InstructionIdx uint32
	BeaconPresent  bool
	BeaconValue    [32]byte
	CorrelationID  string
}

// Provider composes every external collaborator the capability core calls
// through, plus the consensus-visible config snapshot. It is constructed
// once per process and handed to the VM; it carries no mutable state of
// its own beyond what its collaborators own.
type Provider struct {
	Config   config.Config
	Store    Backend
	Blob     blob.Adapter
	ZK       verify.ZkVerifier
	Treasury treasury.Treasury
	Logger   zerolog.Logger
}

// logCall emits a debug-level, non-consensus log line tagging a syscall
// invocation with its caller-supplied correlation id, when present. An
// empty or malformed CorrelationID is logged once and otherwise ignored.
func (p *Provider) logCall(syscall string, call CallContext) {
	ev := p.Logger.Debug().Str("syscall", syscall).Uint64("height", call.Height)
	if call.CorrelationID == "" {
		ev.Msg("syscall invoked")
		return
	}
	if _, err := uuid.Parse(call.CorrelationID); err != nil {
		ev.Str("correlation_id", call.CorrelationID).Bool("correlation_id_malformed", true).Msg("syscall invoked")
		return
	}
	ev.Str("correlation_id", call.CorrelationID).Msg("syscall invoked")
}

// chargeUnits reserves and immediately debits units from caller, for the
// syscalls that settle synchronously (blob_pin, zk_verify, random). A
// zero-unit charge is a no-op so callers never need to special-case an
// empty input.
func (p *Provider) chargeUnits(caller []byte, units uint64) error {
	if units == 0 {
		return nil
	}
	ok, err := p.Treasury.Reserve(caller, units)
	if err != nil {
		return fmt.Errorf("capsyscall: treasury reserve: %w", err)
	}
	if !ok {
		return caperr(ErrTreasuryInsufficient, "insufficient balance for charge")
	}
	if err := p.Treasury.Debit(caller, units); err != nil {
		return fmt.Errorf("capsyscall: treasury debit: %w", err)
	}
	return nil
}

// BlobPin implements blob_pin. Per Scenario D of spec.md §8, the base cost
// is charged before the size cap is even checked, so an oversize payload
// still costs the caller the base fee and nothing else.
func (p *Provider) BlobPin(ctx context.Context, call CallContext, ns uint32, data []byte) (blob.Commitment, uint64, error) {
	p.logCall("blob_pin", call)
	var zero blob.Commitment
	if !p.Config.EnableBlob {
		return zero, 0, caperr(ErrUnsupported, "blob feature disabled")
	}
	if err := p.chargeUnits(call.Caller, p.Config.GasBaseBlob); err != nil {
		return zero, 0, err
	}
	if !p.Config.NamespaceAllowed(ns) {
		return zero, 0, caperr(ErrUnsupported, "namespace not allowed")
	}
	if uint32(len(data)) > p.Config.BlobPinMax {
		return zero, 0, caperr(ErrLimitExceeded, "data exceeds blob_pin_max")
	}
	if err := p.chargeUnits(call.Caller, p.Config.GasPerByteBlob*uint64(len(data))); err != nil {
		return zero, 0, err
	}
	commitment, length, err := p.Blob.Pin(ctx, ns, data)
	if err != nil {
		return zero, 0, caperr(ErrGeneric, "blob adapter failed")
	}
	return commitment, length, nil
}

// AIEnqueue implements ai_enqueue: derives a task_id, reserves the job's
// gas units (debited later by the Resolver once the job resolves), and
// writes a JobRequest. opts may be nil when the caller omitted it.
func (p *Provider) AIEnqueue(call CallContext, modelBytes, prompt, opts []byte, hasOpts bool) ([]byte, error) {
	p.logCall("ai_enqueue", call)
	if !p.Config.EnableAI {
		return nil, caperr(ErrUnsupported, "ai feature disabled")
	}
	if uint32(len(modelBytes)) > p.Config.AIModelMax {
		return nil, caperr(ErrLimitExceeded, "model exceeds ai_model_max")
	}
	if uint32(len(prompt)) > p.Config.AIPromptMax {
		return nil, caperr(ErrLimitExceeded, "prompt exceeds ai_prompt_max")
	}
	if hasOpts {
		if uint32(len(opts)) > p.Config.AIOptsMax {
			return nil, caperr(ErrLimitExceeded, "opts exceeds ai_opts_max")
		}
		if !cborcanon.IsCanonical(opts) {
			return nil, caperr(ErrNotDeterministic, "opts is not canonical CBOR")
		}
	}
	if !p.Config.ModelAllowed(idderive.Sum256(modelBytes)) {
		return nil, caperr(ErrUnsupported, "model not allowlisted")
	}

	depth, err := p.Store.QueueDepth()
	if err != nil {
		return nil, fmt.Errorf("capsyscall: queue depth: %w", err)
	}
	if uint32(depth) >= p.Config.MaxQueueDepth {
		return nil, caperr(ErrLimitExceeded, "queue at max_queue_depth")
	}

	payloadDigest, err := idderive.PayloadDigestAI(modelBytes, prompt, opts, hasOpts)
	if err != nil {
		return nil, fmt.Errorf("capsyscall: payload digest: %w", err)
	}
	taskID := idderive.TaskID(idderive.DomainEnqueueAI, call.ChainID, call.Height, call.TxHash, call.Caller, payloadDigest)

	inputSize := uint64(len(modelBytes) + len(prompt) + len(opts))
	cost := p.Config.GasBaseAIEnqueue + p.Config.GasPerByteAI*inputSize

	ok, err := p.Treasury.Reserve(call.Caller, cost)
	if err != nil {
		return nil, fmt.Errorf("capsyscall: treasury reserve: %w", err)
	}
	if !ok {
		return nil, caperr(ErrTreasuryInsufficient, "insufficient balance to reserve")
	}

	job := model.JobRequest{
		TaskID:         taskID,
		Kind:           model.JobKindAI,
		Caller:         call.Caller,
		HeightEnqueued: call.Height,
		PayloadDigest:  payloadDigest,
		ReservedUnits:  cost,
		OptsDigest:     optsDigest(opts, hasOpts),
		InputSize:      inputSize,
	}
	if err := p.Store.PutJob(job); err != nil {
		return nil, fmt.Errorf("capsyscall: put job: %w", err)
	}

	receipt := model.JobReceipt{TaskID: taskID, Kind: model.JobKindAI, PayloadDigest: payloadDigest, ReservedUnits: cost}
	return model.EncodeJobReceipt(receipt)
}

// QuantumEnqueue implements quantum_enqueue, mirroring AIEnqueue's
// validate/reserve/persist sequence for the QUANTUM job kind.
func (p *Provider) QuantumEnqueue(call CallContext, circuit []byte, shots uint64, opts []byte, hasOpts bool) ([]byte, error) {
	p.logCall("quantum_enqueue", call)
	if !p.Config.EnableQuantum {
		return nil, caperr(ErrUnsupported, "quantum feature disabled")
	}
	if uint32(len(circuit)) > p.Config.QCircuitMax {
		return nil, caperr(ErrLimitExceeded, "circuit exceeds q_circuit_max")
	}
	if shots > uint64(p.Config.QMaxShots) {
		return nil, caperr(ErrLimitExceeded, "shots exceeds q_max_shots")
	}
	if hasOpts {
		if uint32(len(opts)) > p.Config.QOptsMax {
			return nil, caperr(ErrLimitExceeded, "opts exceeds q_opts_max")
		}
		if !cborcanon.IsCanonical(opts) {
			return nil, caperr(ErrNotDeterministic, "opts is not canonical CBOR")
		}
	}
	if !p.Config.CircuitAllowed(idderive.Sum256(circuit)) {
		return nil, caperr(ErrUnsupported, "circuit not allowlisted")
	}

	depth, err := p.Store.QueueDepth()
	if err != nil {
		return nil, fmt.Errorf("capsyscall: queue depth: %w", err)
	}
	if uint32(depth) >= p.Config.MaxQueueDepth {
		return nil, caperr(ErrLimitExceeded, "queue at max_queue_depth")
	}

	payloadDigest, err := idderive.PayloadDigestQuantum(circuit, shots, opts, hasOpts)
	if err != nil {
		return nil, fmt.Errorf("capsyscall: payload digest: %w", err)
	}
	taskID := idderive.TaskID(idderive.DomainEnqueueQuantum, call.ChainID, call.Height, call.TxHash, call.Caller, payloadDigest)

	inputSize := uint64(len(circuit) + len(opts))
	cost := p.Config.GasBaseQEnqueue + p.Config.GasPerByteQ*inputSize

	ok, err := p.Treasury.Reserve(call.Caller, cost)
	if err != nil {
		return nil, fmt.Errorf("capsyscall: treasury reserve: %w", err)
	}
	if !ok {
		return nil, caperr(ErrTreasuryInsufficient, "insufficient balance to reserve")
	}

	job := model.JobRequest{
		TaskID:         taskID,
		Kind:           model.JobKindQuantum,
		Caller:         call.Caller,
		HeightEnqueued: call.Height,
		PayloadDigest:  payloadDigest,
		ReservedUnits:  cost,
		OptsDigest:     optsDigest(opts, hasOpts),
		InputSize:      inputSize,
	}
	if err := p.Store.PutJob(job); err != nil {
		return nil, fmt.Errorf("capsyscall: put job: %w", err)
	}

	receipt := model.JobReceipt{TaskID: taskID, Kind: model.JobKindQuantum, PayloadDigest: payloadDigest, ReservedUnits: cost}
	return model.EncodeJobReceipt(receipt)
}

// ReadResult implements read_result: a pure lookup against the already
// write-once, replay-safe ResultStore. A pruned result and a not-yet-due
// result are indistinguishable (SPEC_FULL.md's pinned resolution of
// spec.md §9's second open question), both returning NoResultYet.
//
// This never separately checks current_height against the record's
// height_enqueued/finalized_at_height (spec.md §3's "readable iff
// current_height >= height_enqueued+1 AND finalized at/before
// current_height-1"): p.Store is assumed to be a snapshot as of the end of
// the previous block (the §5 single-writer, block-boundary concurrency
// model), so any record GetResult can return is, by construction, already
// finalized at or before current_height-1. A Backend that does not uphold
// that snapshot boundary would need an explicit height check added here.
func (p *Provider) ReadResult(taskID [32]byte) ([]byte, error) {
	rec, ok, err := p.Store.GetResult(taskID)
	if err != nil {
		return nil, fmt.Errorf("capsyscall: get result: %w", err)
	}
	if !ok {
		return nil, caperr(ErrNoResultYet, "")
	}
	return cborcanon.Marshal(rec)
}

// ZKVerify implements zk_verify: a pure predicate, charged by bytes plus a
// success multiplier, with no queue interaction at all.
func (p *Provider) ZKVerify(call CallContext, circuit, proof, publicInput []byte) (bool, uint64, error) {
	p.logCall("zk_verify", call)
	if !p.Config.EnableZK {
		return false, 0, caperr(ErrUnsupported, "zk feature disabled")
	}
	if uint32(len(circuit)) > p.Config.ZKCircuitMax {
		return false, 0, caperr(ErrLimitExceeded, "circuit exceeds zk_circuit_max")
	}
	if uint32(len(proof)) > p.Config.ZKProofMax {
		return false, 0, caperr(ErrLimitExceeded, "proof exceeds zk_proof_max")
	}
	if uint32(len(publicInput)) > p.Config.ZKInputMax {
		return false, 0, caperr(ErrLimitExceeded, "public_input exceeds zk_input_max")
	}

	size := uint64(len(circuit) + len(proof) + len(publicInput))
	base := p.Config.GasBaseZK + p.Config.GasPerByteZK*size
	if err := p.chargeUnits(call.Caller, base); err != nil {
		return false, 0, err
	}

	result, err := p.ZK.Verify(circuit, proof, publicInput)
	if err != nil {
		return false, 0, caperr(ErrAttestationError, "malformed proof inputs")
	}

	total := base
	if result.OK && p.Config.GasZKSuccessMult > 1 {
		surcharge := base * (p.Config.GasZKSuccessMult - 1)
		if err := p.chargeUnits(call.Caller, surcharge); err != nil {
			return false, 0, err
		}
		total += surcharge
	}
	return result.OK, total, nil
}

// Random implements random: a pure, deterministic byte stream derived from
// consensus inputs plus the per-call instruction index, with optional
// beacon mixing.
func (p *Provider) Random(call CallContext, n uint32) ([]byte, error) {
	p.logCall("random", call)
	if !p.Config.EnableRandom {
		return nil, caperr(ErrUnsupported, "random feature disabled")
	}
	if n > p.Config.RandMaxBytes {
		return nil, caperr(ErrLimitExceeded, "n exceeds rand_max_bytes")
	}
	if err := p.chargeUnits(call.Caller, p.Config.GasBaseRandom+p.Config.GasPerByteRandom*uint64(n)); err != nil {
		return nil, err
	}
	out := prng.Derive(prng.Context{
		ChainID:        call.ChainID,
		Height:         call.Height,
		TxHash:         call.TxHash,
		Caller:         call.Caller,
		InstructionIdx: call.InstructionIdx,
		BeaconPresent:  call.BeaconPresent,
		BeaconValue:    call.BeaconValue,
	}, n)
	return out, nil
}

func optsDigest(opts []byte, hasOpts bool) [32]byte {
	if !hasOpts {
		return [32]byte{}
	}
	return idderive.Sum256(opts)
}
