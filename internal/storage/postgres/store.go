package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"monadAMM/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS amm_events (
	chain_id     BIGINT      NOT NULL,
	pool_address TEXT        NOT NULL,
	sequence     BIGINT      NOT NULL,
	tx_hash      TEXT        NOT NULL,
	log_index    INTEGER     NOT NULL,
	topics       TEXT[]      NOT NULL,
	data         TEXT        NOT NULL,
	event_ts     BIGINT      NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address, tx_hash, log_index)
);
CREATE TABLE IF NOT EXISTS amm_state (
	name       TEXT        PRIMARY KEY,
	snapshot   JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for pool snapshots and the event journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutLogBatch inserts journaled events. Replayed records are ignored.
func (s *Store) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range logs {
		batch.Queue(`
			INSERT INTO amm_events (
				chain_id, pool_address, sequence, tx_hash, log_index, topics, data, event_ts, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			ON CONFLICT (chain_id, pool_address, tx_hash, log_index) DO NOTHING
		`,
			int64(record.ChainID),
			record.Address,
			int64(record.Sequence),
			record.TxHash,
			int32(record.LogIndex),
			record.Topics,
			record.Data,
			int64(record.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range logs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under name.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (model.Snapshot, bool, error) {
	if name == "" {
		return model.Snapshot{}, false, fmt.Errorf("state name required")
	}
	var raw []byte
	row := s.pool.QueryRow(ctx, `SELECT snapshot FROM amm_state WHERE name=$1`, name)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	return snap, true, nil
}

// SaveSnapshot upserts the snapshot under name.
func (s *Store) SaveSnapshot(ctx context.Context, name string, snap model.Snapshot) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO amm_state (name, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`, name, raw)
	return err
}
