package storage

import (
	"context"

	"monadAMM/internal/model"
)

// Storage defines a sink for journaled event logs.
type Storage interface {
	PutLogBatch(ctx context.Context, logs []model.LogRecord) error
}

// Multi writes every batch to each storage in order, stopping at the first error.
type Multi []Storage

func (m Multi) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.PutLogBatch(ctx, logs); err != nil {
			return err
		}
	}
	return nil
}
