package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// LiquidityResult reports the amounts actually moved by a liquidity call.
type LiquidityResult struct {
	AmountA      *uint256.Int
	AmountB      *uint256.Int
	Shares       *uint256.Int
	Seeded       bool
	Badge        Badge
	NativeRefund *uint256.Int
}

type depositPlan struct {
	amountA *uint256.Int
	amountB *uint256.Int
	shares  *uint256.Int
	seeding bool
}

// AddLiquidity deposits a proportional pair pulled from provider. On an empty
// pool the desired amounts are taken as-is and seed the price.
func (p *Pool) AddLiquidity(ctx context.Context, provider common.Address, amountADesired, amountBDesired, minA, minB *uint256.Int) (LiquidityResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if native, ok := p.cfg.NativeAsset(); ok {
		return LiquidityResult{}, fmt.Errorf("add liquidity: %w: %s", ErrNativeValueRequired, native)
	}

	plan, err := p.planDeposit(amountADesired, amountBDesired, minA, minB)
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("add liquidity: %w", err)
	}

	var result LiquidityResult
	err = p.commit(ctx, "add liquidity", func(tx *txn) ([]leg, error) {
		badge, err := p.applyDeposit(tx, provider, plan)
		if err != nil {
			return nil, fmt.Errorf("add liquidity: %w", err)
		}
		result = plan.result(badge)
		return []leg{
			pull(p.cfg.AssetA, provider, plan.amountA),
			pull(p.cfg.AssetB, provider, plan.amountB),
		}, nil
	})
	if err != nil {
		return LiquidityResult{}, err
	}
	p.logDeposit(provider, result)
	return result, nil
}

// AddLiquidityNative deposits into a token/native pool. The native amount
// arrives as value attached to the call and must equal amountNativeDesired;
// whatever the proportional deposit leaves unused is pushed back to provider.
// The caller's environment refunds value if this returns an error.
func (p *Pool) AddLiquidityNative(ctx context.Context, provider common.Address, amountTokenDesired, amountNativeDesired, minToken, minNative, value *uint256.Int) (LiquidityResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	native, ok := p.cfg.NativeAsset()
	if !ok {
		return LiquidityResult{}, fmt.Errorf("add liquidity native: %w", ErrNotNativePool)
	}
	if value == nil || amountNativeDesired == nil || !value.Eq(amountNativeDesired) {
		return LiquidityResult{}, fmt.Errorf("add liquidity native: %w: value %s, declared %s",
			ErrAmountMismatch, Dec(value), Dec(amountNativeDesired))
	}

	desiredA, desiredB, minA, minB := amountTokenDesired, amountNativeDesired, minToken, minNative
	if native == p.cfg.AssetA {
		desiredA, desiredB, minA, minB = amountNativeDesired, amountTokenDesired, minNative, minToken
	}
	token := p.cfg.AssetA
	if native == p.cfg.AssetA {
		token = p.cfg.AssetB
	}

	plan, err := p.planDeposit(desiredA, desiredB, minA, minB)
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("add liquidity native: %w", err)
	}

	tokenUsed, nativeUsed := plan.amountA, plan.amountB
	if native == p.cfg.AssetA {
		tokenUsed, nativeUsed = plan.amountB, plan.amountA
	}
	refund := new(uint256.Int).Sub(value, nativeUsed)

	var result LiquidityResult
	err = p.commit(ctx, "add liquidity native", func(tx *txn) ([]leg, error) {
		badge, err := p.applyDeposit(tx, provider, plan)
		if err != nil {
			return nil, fmt.Errorf("add liquidity native: %w", err)
		}
		result = plan.result(badge)
		result.NativeRefund = refund.Clone()
		return []leg{
			pull(token, provider, tokenUsed),
			push(native, provider, refund),
		}, nil
	})
	if err != nil {
		return LiquidityResult{}, err
	}
	p.logDeposit(provider, result)
	return result, nil
}

// RemoveLiquidity burns shares for a proportional cut of both reserves.
// Burning the entire supply empties both reserves and the pool can be seeded again.
func (p *Pool) RemoveLiquidity(ctx context.Context, provider common.Address, shares, minA, minB *uint256.Int) (LiquidityResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if shares == nil || shares.IsZero() {
		return LiquidityResult{}, fmt.Errorf("remove liquidity: %w: shares must be positive", ErrInvalidAmount)
	}
	if held := p.shares.shareOf(provider); shares.Gt(held) {
		return LiquidityResult{}, fmt.Errorf("remove liquidity: %w: %s holds %s, wants %s",
			ErrInsufficientShares, provider.Hex(), Dec(held), Dec(shares))
	}

	supply := p.shares.totalSupply()
	amountA, err := mulDiv(p.ledger.reserveA, shares, supply)
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("remove liquidity: %w", err)
	}
	amountB, err := mulDiv(p.ledger.reserveB, shares, supply)
	if err != nil {
		return LiquidityResult{}, fmt.Errorf("remove liquidity: %w", err)
	}
	if amountA.IsZero() || amountB.IsZero() {
		return LiquidityResult{}, fmt.Errorf("remove liquidity: %w: %s shares redeem (%s, %s)",
			ErrInsufficientLiquidity, Dec(shares), Dec(amountA), Dec(amountB))
	}
	if err := checkMinimums(amountA, amountB, minA, minB); err != nil {
		return LiquidityResult{}, fmt.Errorf("remove liquidity: %w", err)
	}

	err = p.commit(ctx, "remove liquidity", func(tx *txn) ([]leg, error) {
		if err := p.shares.burn(tx, provider, shares); err != nil {
			return nil, fmt.Errorf("remove liquidity: %w", err)
		}
		if err := p.ledger.withdraw(tx, p.cfg.AssetA, amountA); err != nil {
			return nil, fmt.Errorf("remove liquidity: %w", err)
		}
		if err := p.ledger.withdraw(tx, p.cfg.AssetB, amountB); err != nil {
			return nil, fmt.Errorf("remove liquidity: %w", err)
		}
		tx.emit(LiquidityRemovedEvent{LiquidityChange: p.change(provider, amountA, amountB, shares)})
		return []leg{
			push(p.cfg.AssetA, provider, amountA),
			push(p.cfg.AssetB, provider, amountB),
		}, nil
	})
	if err != nil {
		return LiquidityResult{}, err
	}

	p.logger.Debug("liquidity removed",
		zap.String("provider", provider.Hex()),
		zap.String("shares", Dec(shares)),
		zap.String("amount_a", Dec(amountA)),
		zap.String("amount_b", Dec(amountB)),
	)
	return LiquidityResult{AmountA: amountA, AmountB: amountB, Shares: shares.Clone()}, nil
}

func (p *Pool) planDeposit(desiredA, desiredB, minA, minB *uint256.Int) (depositPlan, error) {
	if desiredA == nil || desiredB == nil || desiredA.IsZero() || desiredB.IsZero() {
		return depositPlan{}, fmt.Errorf("%w: desired amounts must be positive", ErrInvalidAmount)
	}

	supply := p.shares.totalSupply()
	if supply.IsZero() {
		if err := checkMinimums(desiredA, desiredB, minA, minB); err != nil {
			return depositPlan{}, err
		}
		shares, err := isqrt(desiredA, desiredB)
		if err != nil {
			return depositPlan{}, err
		}
		if shares.IsZero() {
			return depositPlan{}, fmt.Errorf("%w: seeding mints no shares", ErrInsufficientLiquidity)
		}
		return depositPlan{amountA: desiredA.Clone(), amountB: desiredB.Clone(), shares: shares, seeding: true}, nil
	}

	reserveA, reserveB := p.ledger.reserveA, p.ledger.reserveB
	amountA, amountB := desiredA.Clone(), desiredB.Clone()
	optimalB, err := mulDiv(desiredA, reserveB, reserveA)
	if err != nil {
		return depositPlan{}, err
	}
	if !optimalB.Gt(desiredB) {
		amountB = optimalB
	} else {
		optimalA, err := mulDiv(desiredB, reserveA, reserveB)
		if err != nil {
			return depositPlan{}, err
		}
		amountA = optimalA
	}
	if err := checkMinimums(amountA, amountB, minA, minB); err != nil {
		return depositPlan{}, err
	}

	sharesA, err := mulDiv(supply, amountA, reserveA)
	if err != nil {
		return depositPlan{}, err
	}
	sharesB, err := mulDiv(supply, amountB, reserveB)
	if err != nil {
		return depositPlan{}, err
	}
	shares := minInt(sharesA, sharesB)
	if shares.IsZero() {
		return depositPlan{}, fmt.Errorf("%w: deposit (%s, %s) mints no shares", ErrInsufficientLiquidity, Dec(amountA), Dec(amountB))
	}
	return depositPlan{amountA: amountA, amountB: amountB, shares: shares}, nil
}

func (p *Pool) applyDeposit(tx *txn, provider common.Address, plan depositPlan) (Badge, error) {
	if err := p.ledger.deposit(tx, p.cfg.AssetA, plan.amountA); err != nil {
		return Badge{}, err
	}
	if err := p.ledger.deposit(tx, p.cfg.AssetB, plan.amountB); err != nil {
		return Badge{}, err
	}
	if err := p.shares.mint(tx, provider, plan.shares); err != nil {
		return Badge{}, err
	}
	tx.emit(LiquidityAddedEvent{LiquidityChange: p.change(provider, plan.amountA, plan.amountB, plan.shares)})
	badge := p.badges.registerIfAbsent(tx, provider)
	return badge, nil
}

func (p *Pool) change(provider common.Address, amountA, amountB, shares *uint256.Int) LiquidityChange {
	return LiquidityChange{
		Provider:    provider,
		AmountA:     amountA.Clone(),
		AmountB:     amountB.Clone(),
		Shares:      shares.Clone(),
		ReserveA:    p.ledger.reserveA.Clone(),
		ReserveB:    p.ledger.reserveB.Clone(),
		TotalSupply: p.shares.totalSupply(),
	}
}

func (p *Pool) logDeposit(provider common.Address, result LiquidityResult) {
	p.logger.Debug("liquidity added",
		zap.String("provider", provider.Hex()),
		zap.Bool("seeded", result.Seeded),
		zap.String("amount_a", Dec(result.AmountA)),
		zap.String("amount_b", Dec(result.AmountB)),
		zap.String("shares", Dec(result.Shares)),
		zap.Uint64("badge", result.Badge.TokenID),
	)
}

func (d depositPlan) result(badge Badge) LiquidityResult {
	return LiquidityResult{
		AmountA: d.amountA.Clone(),
		AmountB: d.amountB.Clone(),
		Shares:  d.shares.Clone(),
		Seeded:  d.seeding,
		Badge:   badge,
	}
}

func checkMinimums(amountA, amountB, minA, minB *uint256.Int) error {
	if minA != nil && amountA.Lt(minA) {
		return fmt.Errorf("%w: amount a %s below minimum %s", ErrSlippageExceeded, Dec(amountA), Dec(minA))
	}
	if minB != nil && amountB.Lt(minB) {
		return fmt.Errorf("%w: amount b %s below minimum %s", ErrSlippageExceeded, Dec(amountB), Dec(minB))
	}
	return nil
}
