package store

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"rubin.dev/capcore/model"
)

// PutResult writes rec under rec.TaskID. Returns ErrExists if a result
// already exists for this task_id (write-once invariant); the caller
// (resolver) treats ErrExists as "drop silently, idempotent
// re-application", never as a hard failure.
func (d *DB) PutResult(rec model.ResultRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	val, err := model.EncodeResultRecord(rec)
	if err != nil {
		return fmt.Errorf("store: encode result: %w", err)
	}

	start := nowMetric()
	err = d.bdb.Update(func(tx *bolt.Tx) error {
		results := tx.Bucket(bucketResults)
		if results.Get(rec.TaskID[:]) != nil {
			return ErrExists
		}
		return results.Put(rec.TaskID[:], val)
	})
	d.metrics.ObserveStoreOp("put_result", start)
	if err != nil {
		return err
	}
	d.metrics.ResultsWritten.WithLabelValues(rec.Status.String()).Inc()
	d.metrics.JobsQueued.Dec()
	return nil
}

// GetResult returns the result for taskID, or ok=false if none exists yet
// (including the post-pruning case — see SPEC_FULL.md's open-question
// resolution #2: a pruned result reads identically to an unresolved one).
func (d *DB) GetResult(taskID [32]byte) (rec model.ResultRecord, ok bool, err error) {
	start := nowMetric()
	err = d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketResults).Get(taskID[:])
		if v == nil {
			return nil
		}
		decoded, derr := model.DecodeResultRecord(v)
		if derr != nil {
			return derr
		}
		rec, ok = decoded, true
		return nil
	})
	d.metrics.ObserveStoreOp("get_result", start)
	return rec, ok, err
}

// DeleteResult removes a result record; used only by GC.
func (d *DB) DeleteResult(taskID [32]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResults).Delete(taskID[:])
	})
}

// GC prunes every job+result pair whose job was enqueued at a height such
// that height_enqueued + retentionBlocks < currentHeight AND a ResultRecord
// already exists for it (spec.md §3's ownership/lifecycle rule: a job and
// its result are destroyed together, never independently). Jobs that are
// past their retention window but still lack a ResultRecord are left
// alone — the resolver's TTL sweep is responsible for writing a synthetic
// TTL record first; GC never manufactures one itself.
func (d *DB) GC(currentHeight, retentionBlocks uint64) (pruned int, err error) {
	var toDelete [][32]byte
	var heights []uint64

	err = d.bdb.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketByHeight).Cursor()
		results := tx.Bucket(bucketResults)
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			height := heightFromKey(k)
			if height+retentionBlocks >= currentHeight {
				continue
			}
			var taskID [32]byte
			copy(taskID[:], k[8:])
			if results.Get(taskID[:]) == nil {
				continue // no terminal result yet; not eligible for GC
			}
			toDelete = append(toDelete, taskID)
			heights = append(heights, height)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i, taskID := range toDelete {
		if err := d.DeleteJob(taskID, heights[i]); err != nil {
			return pruned, err
		}
		if err := d.DeleteResult(taskID); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
