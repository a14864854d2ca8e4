package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"monadAMM/internal/amm"
	"monadAMM/internal/bank"
	"monadAMM/internal/config"
	"monadAMM/internal/state"
	"monadAMM/internal/storage"
	"monadAMM/internal/storage/pebble"
	"monadAMM/internal/storage/postgres"
)

// backend bundles the state store with the journal kept alongside it.
type backend struct {
	state   state.Store
	journal storage.Storage
	pebble  *pebble.Store
	closers []func()
}

func openBackend(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*backend, error) {
	b := &backend{}
	switch cfg.Backend {
	case config.BackendPostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.state = &state.DBStore{Store: store, Name: cfg.Name}
		b.journal = store
	case config.BackendPebble:
		store, err := pebble.Open(cfg.PebbleDir)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close pebble", zap.Error(err))
			}
		})
		b.state = &state.PebbleStore{Store: store, Name: cfg.Name}
		b.journal = store
		b.pebble = store
	default:
		b.state = &state.FileStore{Path: cfg.StateFile}
	}
	logger.Debug("state backend open", zap.String("backend", cfg.Backend), zap.String("name", cfg.Name))
	return b, nil
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// loadedPool is a pool restored from the backend for read-only commands.
type loadedPool struct {
	pool        *amm.Pool
	bank        *bank.Bank
	lastApplied uint64
}

func loadPool(ctx context.Context, cfg config.Config, b *backend, sink amm.EventSink, logger *zap.Logger) (*loadedPool, error) {
	poolCfg, err := cfg.Pool.AMM()
	if err != nil {
		return nil, err
	}
	poolAddr, err := cfg.Pool.Address()
	if err != nil {
		return nil, err
	}
	settlement := bank.New(poolAddr)

	snap, ok, err := b.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		logger.Info("no saved state, using an empty pool")
		pool, err := amm.New(poolCfg, settlement, sink, logger)
		if err != nil {
			return nil, err
		}
		return &loadedPool{pool: pool, bank: settlement}, nil
	}

	st, balances, err := state.Rebuild(poolCfg, snap)
	if err != nil {
		return nil, err
	}
	if err := settlement.Load(balances); err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}
	pool, err := amm.Restore(poolCfg, st, settlement, sink, logger)
	if err != nil {
		return nil, err
	}
	return &loadedPool{pool: pool, bank: settlement, lastApplied: snap.LastApplied}, nil
}
