package store

import (
	bolt "go.etcd.io/bbolt"
)

// CheckAndInsertNullifier reports whether nullifier has been seen within
// the last nullWindowBlocks (inclusive of height). If fresh, it is recorded
// at height and true is returned; if already present (reused), false is
// returned and nothing is written. The window is enforced by key range scan
// rather than a separate expiry pass: a nullifier older than the window is
// simply invisible to CheckAndInsertNullifier's scan, and is free to be
// reclaimed by PruneNullifiers.
func (d *DB) CheckAndInsertNullifier(nullifier [32]byte, height, nullWindowBlocks uint64) (fresh bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var lo uint64
	if height > nullWindowBlocks {
		lo = height - nullWindowBlocks
	}

	err = d.bdb.Update(func(tx *bolt.Tx) error {
		nulls := tx.Bucket(bucketNulls)
		c := nulls.Cursor()
		loKey := heightKey(lo, [32]byte{})
		for k, _ := c.Seek(loKey); k != nil; k, _ = c.Next() {
			if heightFromKey(k) > height {
				break
			}
			if sameSuffix(k[8:], nullifier[:]) {
				fresh = false
				return nil
			}
		}
		fresh = true
		return nulls.Put(heightKey(height, nullifier), []byte{})
	})
	return fresh, err
}

func sameSuffix(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PruneNullifiers removes every nullifier entry recorded at a height
// strictly before beforeHeight. It is separate from GC, which removes only
// terminal jobs and results and does not call it.
func (d *DB) PruneNullifiers(beforeHeight uint64) (pruned int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var toDelete [][]byte
	err = d.bdb.Update(func(tx *bolt.Tx) error {
		nulls := tx.Bucket(bucketNulls)
		c := nulls.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if heightFromKey(k) >= beforeHeight {
				break
			}
			toDelete = append(toDelete, append([]byte(nil), k...))
		}
		for _, k := range toDelete {
			if err := nulls.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return len(toDelete), err
}
