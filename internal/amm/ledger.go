package amm

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// reserveLedger owns the two pool balances. It is the only writer of
// reserveA/reserveB; every mutation is journaled and logged.
type reserveLedger struct {
	assetA   Asset
	assetB   Asset
	reserveA *uint256.Int
	reserveB *uint256.Int
	logger   *zap.Logger
}

func newReserveLedger(assetA, assetB Asset, logger *zap.Logger) *reserveLedger {
	return &reserveLedger{
		assetA:   assetA,
		assetB:   assetB,
		reserveA: zero(),
		reserveB: zero(),
		logger:   logger,
	}
}

func (l *reserveLedger) slot(asset Asset) (**uint256.Int, error) {
	switch asset {
	case l.assetA:
		return &l.reserveA, nil
	case l.assetB:
		return &l.reserveB, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
}

// get returns a copy of the reserve held for asset.
func (l *reserveLedger) get(asset Asset) (*uint256.Int, error) {
	slot, err := l.slot(asset)
	if err != nil {
		return nil, err
	}
	return (*slot).Clone(), nil
}

// counterpart returns the other asset of the pair.
func (l *reserveLedger) counterpart(asset Asset) (Asset, error) {
	switch asset {
	case l.assetA:
		return l.assetB, nil
	case l.assetB:
		return l.assetA, nil
	default:
		return Asset{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
}

func (l *reserveLedger) deposit(tx *txn, asset Asset, amount *uint256.Int) error {
	slot, err := l.slot(asset)
	if err != nil {
		return err
	}
	before := *slot
	after, err := checkedAdd(before, amount)
	if err != nil {
		return fmt.Errorf("deposit %s: %w", asset, err)
	}
	l.set(tx, slot, before, after, asset, "deposit")
	return nil
}

func (l *reserveLedger) withdraw(tx *txn, asset Asset, amount *uint256.Int) error {
	slot, err := l.slot(asset)
	if err != nil {
		return err
	}
	before := *slot
	if amount.Gt(before) {
		return fmt.Errorf("withdraw %s: %w: have %s, want %s", asset, ErrInsufficientReserve, Dec(before), Dec(amount))
	}
	after := new(uint256.Int).Sub(before, amount)
	l.set(tx, slot, before, after, asset, "withdraw")
	return nil
}

func (l *reserveLedger) set(tx *txn, slot **uint256.Int, before, after *uint256.Int, asset Asset, action string) {
	*slot = after
	tx.record(func() { *slot = before })
	l.logger.Debug("reserve "+action,
		zap.String("asset", asset.String()),
		zap.String("before", Dec(before)),
		zap.String("after", Dec(after)),
	)
}

func (l *reserveLedger) seeded() bool {
	return !l.reserveA.IsZero() && !l.reserveB.IsZero()
}
