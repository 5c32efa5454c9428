// Package store implements the persistent, write-once JobQueue, ResultStore,
// and NullifierIndex on top of go.etcd.io/bbolt, following the same
// bucket-per-keyspace, single-writer-transaction layout the node's chain
// store uses for headers/blocks/UTXOs.
package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"rubin.dev/capcore/model"
)

var (
	bucketJobs      = []byte("jobs")
	bucketResults   = []byte("results")
	bucketByHeight  = []byte("by_height")
	bucketNulls     = []byte("nulls")
	bucketMeta      = []byte("meta")
)

const metaKeySchemaVersion = "schema_version"

// DB owns the single bbolt handle for one chain's capability state and
// serializes every mutating call behind one mutex, matching the "no
// concurrent mutation is permitted" resource model in spec.md §5: bbolt
// already refuses concurrent writers, but the mutex makes the
// single-writer discipline explicit. Each mutating call takes the mutex
// and commits its own bbolt transaction; a block's worth of Resolver
// writes is not grouped into one transaction, so a crash part-way through
// a block leaves the writes committed before it in place.
type DB struct {
	chainDir string
	bdb      *bolt.DB
	mu       sync.Mutex

	metrics *Metrics
}

// Open opens (creating if necessary) the bbolt-backed capability store for
// chainIDHex under datadir.
func Open(datadir string, chainIDHex string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("store: datadir required")
	}
	if chainIDHex == "" {
		return nil, fmt.Errorf("store: chain_id_hex required")
	}

	chainDir := ChainDir(datadir, chainIDHex)
	if err := ensureDir(chainDir); err != nil {
		return nil, err
	}

	path := filepath.Join(chainDir, "capcore.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}

	d := &DB{chainDir: chainDir, bdb: bdb, metrics: NewMetrics()}

	if err := d.bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketJobs, bucketResults, bucketByHeight, bucketNulls, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", string(b), err)
			}
		}
		meta := tx.Bucket(bucketMeta)
		if meta.Get([]byte(metaKeySchemaVersion)) == nil {
			if err := meta.Put([]byte(metaKeySchemaVersion), []byte{model.SchemaVersion}); err != nil {
				return fmt.Errorf("store: init schema version: %w", err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	if err := d.checkSchemaVersion(); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	return d, nil
}

func (d *DB) checkSchemaVersion() error {
	return d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(metaKeySchemaVersion))
		if len(v) != 1 {
			return fmt.Errorf("store: missing schema version")
		}
		if v[0] > model.SchemaVersion {
			return fmt.Errorf("store: schema version %d > supported %d", v[0], model.SchemaVersion)
		}
		return nil
	})
}

// Close closes the underlying bbolt handle.
func (d *DB) Close() error {
	if d == nil || d.bdb == nil {
		return nil
	}
	return d.bdb.Close()
}

// ChainDir returns the directory this store was opened under.
func (d *DB) ChainDir() string { return d.chainDir }

// QueueDepth returns the number of job records in the jobs bucket, for the
// max_queue_depth cap the enqueue syscalls enforce before ever calling
// PutJob. Resolved jobs stay in that bucket until GC prunes them, so they
// are counted too.
func (d *DB) QueueDepth() (int, error) {
	var n int
	err := d.bdb.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketJobs).Stats().KeyN
		return nil
	})
	return n, err
}

func heightKey(height uint64, id [32]byte) []byte {
	key := make([]byte, 8+32)
	putUint64BE(key, height)
	copy(key[8:], id[:])
	return key
}

func putUint64BE(dst []byte, v uint64) {
	dst[0] = byte(v >> 56)
	dst[1] = byte(v >> 48)
	dst[2] = byte(v >> 40)
	dst[3] = byte(v >> 32)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}

func heightFromKey(key []byte) uint64 {
	return uint64(key[0])<<56 | uint64(key[1])<<48 | uint64(key[2])<<40 | uint64(key[3])<<32 |
		uint64(key[4])<<24 | uint64(key[5])<<16 | uint64(key[6])<<8 | uint64(key[7])
}
