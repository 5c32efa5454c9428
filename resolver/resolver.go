// Package resolver consumes externally-verified evidence envelopes during
// block application, joins each to its queued job, and writes a
// normalized, write-once ResultRecord — or, for jobs whose TTL has elapsed
// with no evidence, a synthetic RESOLVED_TTL record. Nothing here mutates
// state outside of a single block's ApplyBlock call.
package resolver

import (
	"fmt"

	"rubin.dev/capcore/idderive"
	"rubin.dev/capcore/model"
	"rubin.dev/capcore/store"
	"rubin.dev/capcore/treasury"
)

// ProofVerifier is the pure predicate a registered envelope kind dispatches
// to. job is the queued job the envelope resolves, and body is
// EvidenceEnvelope.Body exactly as carried in the block, including its
// leading 32-byte task_id; the verifier returns the outcome, the output
// bytes, and its bucketized metrics.
type ProofVerifier func(job model.JobRequest, body []byte) (status model.ResultStatus, output []byte, metrics model.ProofMetrics, err error)

// VerifierRegistry is the closed dispatch table from envelope kind to
// verifier, registered once at node construction (spec.md §9: "dispatch is
// a closed match, not open polymorphism").
type VerifierRegistry map[model.EnvelopeKind]ProofVerifier

// Stores is the narrow persistence surface the Resolver needs. *store.DB
// satisfies it directly; tests may supply a smaller fake.
type Stores interface {
	GetJob(taskID [32]byte) (model.JobRequest, bool, error)
	PutResult(model.ResultRecord) error
	CheckAndInsertNullifier(nullifier [32]byte, height, nullWindowBlocks uint64) (bool, error)
	IterExpiredJobs(currentHeight, ttlBlocks uint64, fn func(taskID [32]byte, job model.JobRequest) error) error
}

// Resolver ties a VerifierRegistry to a store.DB-shaped backend and the
// chain/config parameters needed to recompute nullifiers and enforce the
// TTL/nullifier-window invariants.
type Resolver struct {
	Registry         VerifierRegistry
	Stores           Stores
	ChainID          [32]byte
	TTLBlocks        uint64
	NullWindowBlocks uint64

	// Treasury finalizes the per-job hold SyscallProvider reserved at
	// enqueue time: whatever the outcome (OK, ERR, or TTL), the
	// off-chain unit cost was already incurred, so Debit is called for
	// the job's full ReservedUnits exactly once, at the same moment the
	// terminal ResultRecord is written. Nil disables debiting (tests that
	// don't care about treasury accounting may leave it unset).
	Treasury treasury.Treasury
}

// ApplyBlock processes every evidence envelope observed at currentHeight,
// in the order they were given (callers MUST supply block order — the
// Resolver does not re-sort), followed by the TTL sweep over jobs enqueued
// strictly before currentHeight-TTLBlocks (height_enqueued + TTLBlocks <
// currentHeight). Both phases are idempotent: replay
// of an already-consumed nullifier, or of an already-resolved task_id, is
// silently dropped rather than erroring, matching Scenario C of spec.md §8.
func (r *Resolver) ApplyBlock(currentHeight uint64, envelopes []model.EvidenceEnvelope) error {
	for _, env := range envelopes {
		if err := r.applyEnvelope(currentHeight, env); err != nil {
			return err
		}
	}
	return r.Stores.IterExpiredJobs(currentHeight, r.TTLBlocks, func(taskID [32]byte, job model.JobRequest) error {
		return r.sealTTL(currentHeight, taskID, job)
	})
}

// applyEnvelope resolves a single envelope. Per spec.md §9's third open
// question, a not-yet-enqueued task_id is structurally impossible given
// honest block-application ordering (a job's height_enqueued is always
// strictly less than the height at which evidence for it can be included);
// it is nonetheless handled here as a silent drop rather than an error, so
// a future relaxation of that ordering assumption cannot turn into a
// consensus-halting panic.
//
// Per spec.md §4.3 and §7, none of an envelope's own failure modes —
// an unregistered kind, a malformed/short body, an unknown task_id, or a
// nullifier that doesn't recompute to the carried value — ever abort block
// application; each is a silent drop. Only a genuine backend failure
// (the Stores calls returning a non-nil err) propagates.
func (r *Resolver) applyEnvelope(currentHeight uint64, env model.EvidenceEnvelope) error {
	kind := model.EnvelopeKind(env.TypeID)
	verify, ok := r.Registry[kind]
	if !ok {
		return nil // unregistered kind: dropped
	}

	domain, ok := idderive.NullifierDomainForKind(kind.String())
	if !ok {
		return nil // kind has no nullifier domain: dropped
	}

	// The job must be fetched before the nullifier can be recomputed: the
	// nullifier is defined over height_enqueued (spec.md §3), which is
	// fixed for the life of the job and only known once the job is loaded
	// — using currentHeight here would make the nullifier (and therefore
	// replay detection) depend on the resolving block, not the enqueuing
	// one.
	taskID, job, found, err := extractTaskID(r.Stores, env.Body)
	if err != nil {
		return fmt.Errorf("resolver: get job: %w", err)
	}
	if !found {
		return nil // no matching queued job, or a body too short to carry a task_id: dropped
	}

	wantNullifier := idderive.Nullifier(domain, r.ChainID, env.TypeID, job.HeightEnqueued, env.Body)
	if wantNullifier != env.Nullifier {
		return nil // envelope nullifier does not match recomputed value: dropped
	}

	fresh, err := r.Stores.CheckAndInsertNullifier(env.Nullifier, currentHeight, r.NullWindowBlocks)
	if err != nil {
		return fmt.Errorf("resolver: nullifier check: %w", err)
	}
	if !fresh {
		return nil // replay: silently dropped, no state change (Scenario C)
	}

	status, output, metrics, verr := verify(job, env.Body)
	if verr != nil {
		status, output, metrics = model.ResultStatusErr, nil, model.ProofMetrics{}
	}

	rec := model.ResultRecord{
		TaskID:            taskID,
		Status:            status,
		OutputBytes:       output,
		Metrics:           metrics,
		ProofRef:          env.Nullifier,
		FinalizedAtHeight: currentHeight,
		Nullifier:         env.Nullifier,
	}
	if err := r.Stores.PutResult(rec); err != nil {
		if err == store.ErrExists {
			return nil // already resolved by an earlier, equivalent envelope
		}
		return fmt.Errorf("resolver: put result: %w", err)
	}
	r.debitJob(job)
	return nil
}

// sealTTL writes a synthetic RESOLVED_TTL record for a job whose TTL has
// elapsed with no evidence. It is a no-op (not an error) if a result was
// already written for this task_id, since TTL sweep and evidence
// application can race within the same ApplyBlock call for a job whose
// evidence and TTL deadline land in the same block.
func (r *Resolver) sealTTL(currentHeight uint64, taskID [32]byte, job model.JobRequest) error {
	rec := model.ResultRecord{
		TaskID:            taskID,
		Status:            model.ResultStatusTTL,
		OutputBytes:       nil,
		Metrics:           model.ProofMetrics{},
		ProofRef:          [32]byte{},
		FinalizedAtHeight: currentHeight,
		Nullifier:         [32]byte{},
	}
	if err := r.Stores.PutResult(rec); err != nil {
		if err == store.ErrExists {
			return nil
		}
		return fmt.Errorf("resolver: seal ttl: %w", err)
	}
	r.debitJob(job)
	return nil
}

// debitJob finalizes job's treasury hold. Debit errors are intentionally
// swallowed here rather than failing block application: a treasury
// bookkeeping fault must never roll back an already-written, consensus
// visible ResultRecord.
func (r *Resolver) debitJob(job model.JobRequest) {
	if r.Treasury == nil {
		return
	}
	_ = r.Treasury.Debit(job.Caller, job.ReservedUnits)
}

// extractTaskID pulls the task_id an envelope body resolves out of the
// first 32 bytes of its canonical body (the Resolver's ingestion contract:
// every envelope body is prefixed by the task_id it resolves, ahead of
// kind-specific evidence), and looks up the matching queued job. A body too
// short to carry a task_id is reported as not-found rather than an error,
// since it is just another malformed-envelope shape to drop.
func extractTaskID(s Stores, body []byte) (taskID [32]byte, job model.JobRequest, found bool, err error) {
	if len(body) < 32 {
		return taskID, job, false, nil
	}
	copy(taskID[:], body[:32])
	job, found, err = s.GetJob(taskID)
	return taskID, job, found, err
}
