// Package replay applies a JSONL operation script to a pool, journals the
// resulting events and persists the pool so a later run can resume.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"monadAMM/internal/amm"
	"monadAMM/internal/bank"
	"monadAMM/internal/dex"
	"monadAMM/internal/model"
	"monadAMM/internal/state"
	"monadAMM/internal/storage"
)

// ErrInvalidOperation marks a script line that could not be turned into a call.
var ErrInvalidOperation = errors.New("invalid operation")

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	Name        string
	ChainID     uint64
	PoolAddress common.Address
	BatchSize   uint64
}

// ErrorWriter receives rejected operations. *storage.JSONLWriter satisfies it.
type ErrorWriter interface {
	Write(value interface{}) error
}

// FailureObserver is notified of every rejected operation.
type FailureObserver interface {
	ObserveFailure(op, code string)
}

// Summary reports what a run did.
type Summary struct {
	Applied     int
	Failed      int
	Skipped     int
	Events      int
	LastApplied uint64
}

// Runner replays operations against a pool backed by an in-memory bank.
type Runner struct {
	cfg      RunConfig
	poolCfg  amm.Config
	store    state.Store
	journal  storage.Storage
	errors   ErrorWriter
	failures FailureObserver
	sink     amm.EventSink
	logger   *zap.Logger

	pool    *amm.Pool
	bank    *bank.Bank
	capture *amm.MemorySink
	encoder *dex.Encoder
	last    uint64
}

// Option configures optional Runner dependencies.
type Option func(*Runner)

// WithJournal stores the events of every applied operation.
func WithJournal(journal storage.Storage) Option {
	return func(r *Runner) { r.journal = journal }
}

// WithErrorWriter records rejected operations.
func WithErrorWriter(w ErrorWriter) Option {
	return func(r *Runner) { r.errors = w }
}

// WithFailureObserver counts rejected operations.
func WithFailureObserver(o FailureObserver) Option {
	return func(r *Runner) { r.failures = o }
}

// WithEventSink forwards committed pool events, for example to metrics.
func WithEventSink(sink amm.EventSink) Option {
	return func(r *Runner) { r.sink = sink }
}

// NewRunner builds a Runner. The pool is created or restored from store on Run.
func NewRunner(cfg RunConfig, poolCfg amm.Config, store state.Store, logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		cfg:     cfg,
		poolCfg: poolCfg,
		store:   store,
		logger:  logger,
		capture: &amm.MemorySink{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pool returns the pool once Run has opened it.
func (r *Runner) Pool() *amm.Pool {
	return r.pool
}

// Bank returns the settlement bank once Run has opened it.
func (r *Runner) Bank() *bank.Bank {
	return r.bank
}

// Run applies every line after the last persisted one.
func (r *Runner) Run(ctx context.Context, lines []Line) (Summary, error) {
	if r.store == nil {
		return Summary{}, fmt.Errorf("state store is nil")
	}
	if r.cfg.BatchSize == 0 {
		return Summary{}, fmt.Errorf("batch size must be greater than zero")
	}
	if err := r.open(ctx); err != nil {
		return Summary{}, err
	}

	summary := Summary{LastApplied: r.last}
	pending := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Number <= r.last {
			summary.Skipped++
			continue
		}
		pending = append(pending, line)
	}
	if len(pending) == 0 {
		r.logger.Info("nothing to replay", zap.Uint64("last_applied", r.last))
		return summary, nil
	}

	ranges, err := SplitRange(pending[0].Number, pending[len(pending)-1].Number, r.cfg.BatchSize)
	if err != nil {
		return summary, err
	}

	next := 0
	for _, batch := range ranges {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		var records []model.LogRecord
		for next < len(pending) && pending[next].Number <= batch.To {
			line := pending[next]
			next++

			logs, err := r.apply(ctx, line)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return summary, err
				}
				summary.Failed++
				if err := r.reject(line, err); err != nil {
					return summary, err
				}
				continue
			}
			summary.Applied++
			records = append(records, logs...)
		}

		if r.journal != nil {
			if err := r.journal.PutLogBatch(ctx, records); err != nil {
				return summary, fmt.Errorf("store events: %w", err)
			}
		}
		summary.Events += len(records)

		r.last = batch.To
		if err := r.save(ctx); err != nil {
			return summary, err
		}
		summary.LastApplied = r.last

		r.logger.Info("batch complete",
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
			zap.Int("events", len(records)),
		)
	}

	return summary, nil
}

func (r *Runner) open(ctx context.Context) error {
	if r.pool != nil {
		return nil
	}
	encoder, err := dex.NewEncoder(r.cfg.ChainID, r.cfg.PoolAddress)
	if err != nil {
		return err
	}
	r.encoder = encoder
	r.bank = bank.New(r.cfg.PoolAddress)

	sink := amm.MultiSink{r.capture, r.sink}
	snap, ok, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !ok {
		r.pool, err = amm.New(r.poolCfg, r.bank, sink, r.logger)
		if err != nil {
			return fmt.Errorf("create pool: %w", err)
		}
		r.logger.Info("created pool",
			zap.String("asset_a", r.poolCfg.AssetA.String()),
			zap.String("asset_b", r.poolCfg.AssetB.String()),
			zap.Uint16("fee_bps", r.poolCfg.FeeBps),
		)
		return nil
	}

	st, balances, err := state.Rebuild(r.poolCfg, snap)
	if err != nil {
		return err
	}
	if err := r.bank.Load(balances); err != nil {
		return fmt.Errorf("load balances: %w", err)
	}
	r.pool, err = amm.Restore(r.poolCfg, st, r.bank, sink, r.logger)
	if err != nil {
		return err
	}
	r.last = snap.LastApplied
	if syncer, ok := r.sink.(interface{ Sync(amm.State) }); ok {
		syncer.Sync(st)
	}
	r.logger.Info("resume from snapshot", zap.Uint64("last_applied", r.last))
	return nil
}

func (r *Runner) save(ctx context.Context) error {
	snap := state.Capture(r.cfg.Name, r.poolCfg, r.pool.State(), r.bank.Balances(), r.last)
	if err := r.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// apply runs one line and returns the log records of its events.
func (r *Runner) apply(ctx context.Context, line Line) ([]model.LogRecord, error) {
	if line.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, line.Err)
	}
	r.capture.Events = nil
	if err := r.execute(ctx, line.Op); err != nil {
		return nil, err
	}
	events := r.capture.Events
	r.capture.Events = nil
	if len(events) == 0 {
		return nil, nil
	}
	return r.encoder.Encode(line.Number, txHash(line), line.Op.Timestamp, events)
}

func (r *Runner) reject(line Line, err error) error {
	code := amm.ErrorCode(err)
	if errors.Is(err, ErrInvalidOperation) {
		code = "invalid_operation"
	}
	r.logger.Warn("operation rejected",
		zap.Uint64("line", line.Number),
		zap.String("op", line.Op.Op),
		zap.String("code", code),
		zap.Error(err),
	)
	if r.failures != nil {
		r.failures.ObserveFailure(opLabel(line.Op.Op), code)
	}
	if r.errors == nil {
		return nil
	}
	if werr := r.errors.Write(model.OperationError{
		Line:   line.Number,
		Op:     line.Op.Op,
		TxHash: txHash(line).Hex(),
		Code:   code,
		Error:  err.Error(),
	}); werr != nil {
		return fmt.Errorf("write operation error: %w", werr)
	}
	return nil
}

// txHash identifies an operation by the hash of its script line.
func txHash(line Line) common.Hash {
	return crypto.Keccak256Hash(line.Raw)
}

// opLabel bounds metric label values to the known operations.
func opLabel(op string) string {
	switch op {
	case model.OpFund, model.OpAddLiquidity, model.OpAddLiquidityNative, model.OpSwap, model.OpRemoveLiquidity:
		return op
	default:
		return "unknown"
	}
}
