package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// lpAccounting tracks LP share balances. The sum of all positions always
// equals supply.
type lpAccounting struct {
	supply    *uint256.Int
	positions map[common.Address]*uint256.Int
	logger    *zap.Logger
}

func newLPAccounting(logger *zap.Logger) *lpAccounting {
	return &lpAccounting{
		supply:    zero(),
		positions: make(map[common.Address]*uint256.Int),
		logger:    logger,
	}
}

func (a *lpAccounting) shareOf(owner common.Address) *uint256.Int {
	if held, ok := a.positions[owner]; ok {
		return held.Clone()
	}
	return zero()
}

func (a *lpAccounting) totalSupply() *uint256.Int {
	return a.supply.Clone()
}

func (a *lpAccounting) mint(tx *txn, owner common.Address, shares *uint256.Int) error {
	supply, err := checkedAdd(a.supply, shares)
	if err != nil {
		return fmt.Errorf("mint shares: %w", err)
	}
	held := a.shareOf(owner)
	position, err := checkedAdd(held, shares)
	if err != nil {
		return fmt.Errorf("mint shares: %w", err)
	}
	a.apply(tx, owner, supply, position)
	return nil
}

func (a *lpAccounting) burn(tx *txn, owner common.Address, shares *uint256.Int) error {
	held := a.shareOf(owner)
	if shares.Gt(held) {
		return fmt.Errorf("%w: %s holds %s, wants %s", ErrInsufficientShares, owner.Hex(), Dec(held), Dec(shares))
	}
	position := new(uint256.Int).Sub(held, shares)
	supply := new(uint256.Int).Sub(a.supply, shares)
	a.apply(tx, owner, supply, position)
	return nil
}

func (a *lpAccounting) apply(tx *txn, owner common.Address, supply, position *uint256.Int) {
	prevSupply := a.supply
	prevPosition, hadPosition := a.positions[owner]

	a.supply = supply
	if position.IsZero() {
		delete(a.positions, owner)
	} else {
		a.positions[owner] = position
	}

	tx.record(func() {
		a.supply = prevSupply
		if hadPosition {
			a.positions[owner] = prevPosition
		} else {
			delete(a.positions, owner)
		}
	})

	a.logger.Debug("lp shares updated",
		zap.String("owner", owner.Hex()),
		zap.String("position", Dec(position)),
		zap.String("supply", Dec(supply)),
	)
}
