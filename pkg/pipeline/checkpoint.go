package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var runBucket = []byte("pipeline_runs")

// RunRecord is the last-known outcome of one tenant/table run, as kept by
// CheckpointStore (one record per tenant/table, overwritten by each Record).
// Neither cmd/latticed nor the health handlers open a CheckpointStore.
type RunRecord struct {
	Tenant     string
	Table      string
	Status     OutcomeStatus
	RowsLoaded int64
	RanAt      time.Time
	Message    string
}

// CheckpointStore persists RunRecords in a single embedded bbolt file,
// adapted from the teacher's bucket-per-collection storage pattern
// (also reused by constants.DocumentBackend).
type CheckpointStore struct {
	db *bolt.DB
}

// OpenCheckpointStore opens (creating if absent) the run-state file at path.
func OpenCheckpointStore(path string) (*CheckpointStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open checkpoint store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pipeline: init checkpoint bucket: %w", err)
	}
	return &CheckpointStore{db: db}, nil
}

func checkpointKey(tenantSlug, table string) []byte {
	return []byte(tenantSlug + "/" + table)
}

// Record saves the outcome of one table run, overwriting any prior
// record for the same tenant/table.
func (s *CheckpointStore) Record(rec RunRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("pipeline: marshal checkpoint: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runBucket).Put(checkpointKey(rec.Tenant, rec.Table), raw)
	})
}

// Last returns the most recent recorded run for tenant/table, if any.
func (s *CheckpointStore) Last(tenantSlug, table string) (RunRecord, bool, error) {
	var rec RunRecord
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(runBucket).Get(checkpointKey(tenantSlug, table))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("pipeline: read checkpoint: %w", err)
	}
	return rec, found, nil
}

func (s *CheckpointStore) Close() error { return s.db.Close() }
