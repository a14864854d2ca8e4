package amm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// DefaultBadgeBaseURI is the metadata prefix used when none is configured.
const DefaultBadgeBaseURI = "ipfs://bafkreigbqlikf7bg5hfqvkxac6ia53jeunkhdm4eaf2eo2imbxkn4u4amq/"

// Config holds the immutable pool parameters.
type Config struct {
	AssetA       Asset
	AssetB       Asset
	FeeBps       uint16
	MinReserve   *uint256.Int
	BadgeBaseURI string
}

// Validate checks the pair and fee.
func (c Config) Validate() error {
	if c.AssetA == c.AssetB {
		return fmt.Errorf("pool assets must differ: %s", c.AssetA)
	}
	if !c.AssetA.IsNative() && c.AssetA.Token == (common.Address{}) {
		return fmt.Errorf("asset a: zero token address")
	}
	if !c.AssetB.IsNative() && c.AssetB.Token == (common.Address{}) {
		return fmt.Errorf("asset b: zero token address")
	}
	if c.FeeBps >= feeDenominator {
		return fmt.Errorf("fee must be below %d bps, got %d", feeDenominator, c.FeeBps)
	}
	return nil
}

// NativeAsset reports which side of the pool, if any, is the native coin.
func (c Config) NativeAsset() (Asset, bool) {
	switch {
	case c.AssetA.IsNative():
		return c.AssetA, true
	case c.AssetB.IsNative():
		return c.AssetB, true
	default:
		return Asset{}, false
	}
}

// Pool is a two-asset constant-product pool. All public methods are
// serialised by one lock; each mutating call commits fully or not at all.
type Pool struct {
	mu       sync.Mutex
	cfg      Config
	ledger   *reserveLedger
	shares   *lpAccounting
	badges   *badgeRegistry
	transfer Transfer
	sink     EventSink
	logger   *zap.Logger
}

// New creates an empty pool.
func New(cfg Config, transfer Transfer, sink EventSink, logger *zap.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, fmt.Errorf("transfer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinReserve == nil {
		cfg.MinReserve = zero()
	}
	if cfg.BadgeBaseURI == "" {
		cfg.BadgeBaseURI = DefaultBadgeBaseURI
	}

	logger = logger.With(zap.String("asset_a", cfg.AssetA.String()), zap.String("asset_b", cfg.AssetB.String()))
	return &Pool{
		cfg:      cfg,
		ledger:   newReserveLedger(cfg.AssetA, cfg.AssetB, logger),
		shares:   newLPAccounting(logger),
		badges:   newBadgeRegistry(cfg.BadgeBaseURI, logger),
		transfer: transfer,
		sink:     sink,
		logger:   logger,
	}, nil
}

// Config returns the pool parameters.
func (p *Pool) Config() Config {
	return p.cfg
}

// Reserves returns copies of both reserves, in (A, B) order.
func (p *Pool) Reserves() (*uint256.Int, *uint256.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.reserveA.Clone(), p.ledger.reserveB.Clone()
}

// ReserveOf returns the reserve held for asset.
func (p *Pool) ReserveOf(asset Asset) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.get(asset)
}

// TotalSupply returns the outstanding LP shares.
func (p *Pool) TotalSupply() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.totalSupply()
}

// ShareOf returns the LP shares held by owner.
func (p *Pool) ShareOf(owner common.Address) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.shareOf(owner)
}

// BadgeOf returns the provider badge of owner, if any.
func (p *Pool) BadgeOf(owner common.Address) (Badge, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.badges.badgeOf(owner)
}

// commit runs effects inside a journaled transaction, then the external
// transfers, then publishes the queued events. Any failure before publishing
// reverts every state change; already completed transfers are compensated.
func (p *Pool) commit(ctx context.Context, op string, effects func(tx *txn) ([]leg, error)) error {
	tx := &txn{}
	legs, err := effects(tx)
	if err != nil {
		tx.revert()
		return err
	}

	if err := p.settle(ctx, legs); err != nil {
		tx.revert()
		return fmt.Errorf("%s: %w", op, err)
	}

	if p.sink != nil && len(tx.events) > 0 {
		if err := p.sink.Publish(ctx, tx.events); err != nil {
			p.logger.Error("publish events", zap.String("op", op), zap.Error(err))
		}
	}
	p.logger.Debug("operation committed", zap.String("op", op), zap.Int("events", len(tx.events)))
	return nil
}

func (p *Pool) settle(ctx context.Context, legs []leg) error {
	done := make([]leg, 0, len(legs))
	for _, l := range legs {
		if err := l.run(ctx, p.transfer); err != nil {
			failure := fmt.Errorf("%w: %s %s for %s: %w", ErrTransferFailed, l.asset, Dec(l.amount), l.account.Hex(), err)
			if compErr := p.compensate(ctx, done); compErr != nil {
				return errors.Join(failure, compErr)
			}
			return failure
		}
		done = append(done, l)
	}
	return nil
}

func (p *Pool) compensate(ctx context.Context, done []leg) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		undo := done[i].inverse()
		if err := undo.run(ctx, p.transfer); err != nil {
			p.logger.Error("compensating transfer failed",
				zap.String("asset", undo.asset.String()),
				zap.String("account", undo.account.Hex()),
				zap.String("amount", Dec(undo.amount)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("compensate %s: %w", undo.asset, err))
		}
	}
	return errors.Join(errs...)
}

// State is a deep copy of the persisted pool state.
type State struct {
	ReserveA    *uint256.Int
	ReserveB    *uint256.Int
	TotalSupply *uint256.Int
	Positions   map[common.Address]*uint256.Int
	Badges      []Badge
	NextBadgeID uint64
}

// State returns a snapshot of the pool. Badges are ordered by token id.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	positions := make(map[common.Address]*uint256.Int, len(p.shares.positions))
	for owner, held := range p.shares.positions {
		positions[owner] = held.Clone()
	}
	badges := make([]Badge, 0, len(p.badges.byOwner))
	for _, badge := range p.badges.byOwner {
		badges = append(badges, badge)
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].TokenID < badges[j].TokenID })

	return State{
		ReserveA:    p.ledger.reserveA.Clone(),
		ReserveB:    p.ledger.reserveB.Clone(),
		TotalSupply: p.shares.totalSupply(),
		Positions:   positions,
		Badges:      badges,
		NextBadgeID: p.badges.nextID,
	}
}

// Restore creates a pool from a previously taken State after checking that
// positions sum to the supply and that reserves and supply agree on seeding.
func Restore(cfg Config, state State, transfer Transfer, sink EventSink, logger *zap.Logger) (*Pool, error) {
	p, err := New(cfg, transfer, sink, logger)
	if err != nil {
		return nil, err
	}

	sum := zero()
	positions := make(map[common.Address]*uint256.Int, len(state.Positions))
	for owner, held := range state.Positions {
		if held == nil || held.IsZero() {
			continue
		}
		if sum, err = checkedAdd(sum, held); err != nil {
			return nil, fmt.Errorf("restore positions: %w", err)
		}
		positions[owner] = held.Clone()
	}
	supply := state.TotalSupply
	if supply == nil {
		supply = zero()
	}
	if !sum.Eq(supply) {
		return nil, fmt.Errorf("restore: positions sum %s != supply %s", Dec(sum), Dec(supply))
	}

	reserveA, reserveB := state.ReserveA, state.ReserveB
	if reserveA == nil {
		reserveA = zero()
	}
	if reserveB == nil {
		reserveB = zero()
	}
	seeded := !reserveA.IsZero() && !reserveB.IsZero()
	if seeded == supply.IsZero() {
		return nil, fmt.Errorf("restore: reserves (%s, %s) inconsistent with supply %s", Dec(reserveA), Dec(reserveB), Dec(supply))
	}

	nextID := state.NextBadgeID
	if nextID == 0 {
		nextID = 1
	}
	seen := make(map[uint64]struct{}, len(state.Badges))
	for _, badge := range state.Badges {
		if badge.TokenID == 0 {
			return nil, fmt.Errorf("restore: badge of %s has zero id", badge.Owner.Hex())
		}
		if badge.TokenID >= nextID {
			return nil, fmt.Errorf("restore: badge %d not below next id %d", badge.TokenID, nextID)
		}
		if _, dup := seen[badge.TokenID]; dup {
			return nil, fmt.Errorf("restore: badge %d issued twice", badge.TokenID)
		}
		if _, dup := p.badges.byOwner[badge.Owner]; dup {
			return nil, fmt.Errorf("restore: %s holds more than one badge", badge.Owner.Hex())
		}
		seen[badge.TokenID] = struct{}{}
		p.badges.byOwner[badge.Owner] = badge
	}

	p.ledger.reserveA = reserveA.Clone()
	p.ledger.reserveB = reserveB.Clone()
	p.shares.supply = supply.Clone()
	p.shares.positions = positions
	p.badges.nextID = nextID
	return p, nil
}
