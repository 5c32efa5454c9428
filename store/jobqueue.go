package store

import (
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"rubin.dev/capcore/model"
)

// ErrExists is returned by Put when the key already has a value, enforcing
// write-once semantics.
var ErrExists = errors.New("store: already exists")

// PutJob inserts req under req.TaskID. Returns ErrExists if a job with this
// task_id was already queued (spec.md's uniqueness invariant).
func (d *DB) PutJob(req model.JobRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	val, err := model.EncodeJobRequest(req)
	if err != nil {
		return fmt.Errorf("store: encode job: %w", err)
	}

	start := nowMetric()
	err = d.bdb.Update(func(tx *bolt.Tx) error {
		jobs := tx.Bucket(bucketJobs)
		if jobs.Get(req.TaskID[:]) != nil {
			return ErrExists
		}
		if err := jobs.Put(req.TaskID[:], val); err != nil {
			return err
		}
		return tx.Bucket(bucketByHeight).Put(heightKey(req.HeightEnqueued, req.TaskID), []byte{})
	})
	d.metrics.ObserveStoreOp("put_job", start)
	if err != nil {
		return err
	}
	d.metrics.JobsQueued.Inc()
	return nil
}

// GetJob returns the job for taskID, or ok=false if absent.
func (d *DB) GetJob(taskID [32]byte) (req model.JobRequest, ok bool, err error) {
	start := nowMetric()
	err = d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketJobs).Get(taskID[:])
		if v == nil {
			return nil
		}
		decoded, derr := model.DecodeJobRequest(v)
		if derr != nil {
			return derr
		}
		req, ok = decoded, true
		return nil
	})
	d.metrics.ObserveStoreOp("get_job", start)
	return req, ok, err
}

// IterExpiredJobs calls fn for every queued job with
// height_enqueued + ttlBlocks < currentHeight that still has an entry in
// the jobs bucket and no entry in the results bucket (i.e. has not yet
// been resolved or pruned). Iteration
// order follows the by_height index (ascending height, then task_id), which
// is also the order the TTL sweep in resolver.ApplyBlock uses so that sweep
// behavior is itself deterministic across nodes.
func (d *DB) IterExpiredJobs(currentHeight, ttlBlocks uint64, fn func(taskID [32]byte, job model.JobRequest) error) error {
	return d.bdb.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketByHeight).Cursor()
		jobs := tx.Bucket(bucketJobs)
		results := tx.Bucket(bucketResults)
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			height := heightFromKey(k)
			if height+ttlBlocks >= currentHeight {
				continue
			}
			var taskID [32]byte
			copy(taskID[:], k[8:])
			if results.Get(taskID[:]) != nil {
				continue // already resolved
			}
			v := jobs.Get(taskID[:])
			if v == nil {
				continue // already GC'd
			}
			job, err := model.DecodeJobRequest(v)
			if err != nil {
				return err
			}
			if err := fn(taskID, job); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteJob removes a job record; used only by GC, and only once a
// terminal ResultRecord exists (or has just been written).
func (d *DB) DeleteJob(taskID [32]byte, height uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bdb.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketJobs).Delete(taskID[:]); err != nil {
			return err
		}
		return tx.Bucket(bucketByHeight).Delete(heightKey(height, taskID))
	})
}
