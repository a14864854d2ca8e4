// Package pebble keeps pool snapshots and the event journal in an embedded
// Pebble database.
package pebble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"monadAMM/internal/model"
)

var ErrDBClosed = errors.New("database is closed")

const (
	statePrefix = "state/"
	eventPrefix = "event/"
)

type Store struct {
	db *pebble.DB
}

// Open opens or creates the database at dir.
func Open(dir string) (*Store, error) {
	return OpenWithOptions(dir, &pebble.Options{})
}

func OpenWithOptions(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// LoadSnapshot returns the snapshot stored under name.
func (s *Store) LoadSnapshot(_ context.Context, name string) (model.Snapshot, bool, error) {
	if s.db == nil {
		return model.Snapshot{}, false, ErrDBClosed
	}
	val, closer, err := s.db.Get([]byte(statePrefix + name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	defer closer.Close()

	var snap model.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	return snap, true, nil
}

// SaveSnapshot writes the snapshot under name with a synced write.
func (s *Store) SaveSnapshot(_ context.Context, name string, snap model.Snapshot) error {
	if s.db == nil {
		return ErrDBClosed
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.db.Set([]byte(statePrefix+name), raw, pebble.Sync)
}

// PutLogBatch stores records keyed by sequence and log index, so iteration
// returns them in journal order.
func (s *Store) PutLogBatch(_ context.Context, logs []model.LogRecord) error {
	if s.db == nil {
		return ErrDBClosed
	}
	if len(logs) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, record := range logs {
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal log record: %w", err)
		}
		if err := batch.Set(eventKey(record.Sequence, record.LogIndex), raw, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// Logs returns every journaled record with sequence >= from, in order.
func (s *Store) Logs(_ context.Context, from uint64) ([]model.LogRecord, error) {
	if s.db == nil {
		return nil, ErrDBClosed
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: eventKey(from, 0),
		UpperBound: []byte(eventPrefix + "~"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []model.LogRecord
	for iter.First(); iter.Valid(); iter.Next() {
		var record model.LogRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			return nil, fmt.Errorf("parse log record %s: %w", iter.Key(), err)
		}
		out = append(out, record)
	}
	return out, iter.Error()
}

func eventKey(sequence, logIndex uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d/%06d", eventPrefix, sequence, logIndex))
}
