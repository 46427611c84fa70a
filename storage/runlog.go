package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

// RunRecord is one archived analysis pass. The full recommendation set is
// kept so past runs can be re-rendered and compared.
type RunRecord struct {
	Sequence        int64           `json:"sequence"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Analyzed        int             `json:"analyzed"`
	Recommendations int             `json:"recommendations"`
	Skipped         int             `json:"skipped"`
	MonthlySavings  float64         `json:"monthly_savings"`
	Result          json.RawMessage `json:"result"`
}

// RunLog is an append-only archive of analysis runs. Records are keyed by
// sequence number; readers iterate newest first.
type RunLog struct {
	mu sync.Mutex

	db       *bbolt.DB
	sequence int64
}

// OpenRunLog opens (or creates) the run archive at path
func OpenRunLog(path string) (*RunLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create run log directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	log := &RunLog{db: db}

	err = db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketRuns)
		if err != nil {
			return err
		}
		// Resume the sequence from the last stored record
		if k, _ := bucket.Cursor().Last(); k != nil {
			log.sequence = int64(binary.BigEndian.Uint64(k))
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return log, nil
}

// Close closes the underlying database
func (l *RunLog) Close() error {
	return l.db.Close()
}

// Append archives one run and returns its sequence number
func (l *RunLog) Append(record RunRecord) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sequence++
	record.Sequence = l.sequence

	value, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("failed to encode run record: %w", err)
	}

	err = l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).Put(sequenceKey(record.Sequence), value)
	})
	if err != nil {
		return 0, err
	}
	return record.Sequence, nil
}

// Recent returns up to limit records, newest first
func (l *RunLog) Recent(limit int) ([]RunRecord, error) {
	var records []RunRecord

	err := l.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketRuns).Cursor()
		for k, v := cursor.Last(); k != nil && len(records) < limit; k, v = cursor.Prev() {
			var record RunRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("failed to decode run record: %w", err)
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns one archived run by sequence number
func (l *RunLog) Get(sequence int64) (*RunRecord, error) {
	var record RunRecord
	found := false

	err := l.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get(sequenceKey(sequence))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to decode run record: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no run with sequence %d", sequence)
	}
	return &record, nil
}

func sequenceKey(sequence int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(sequence))
	return key
}
