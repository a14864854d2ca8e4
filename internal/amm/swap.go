package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// SwapQuote is the priced outcome of a swap. It is never persisted.
type SwapQuote struct {
	AssetIn          Asset
	AssetOut         Asset
	AmountIn         *uint256.Int
	AmountInAfterFee *uint256.Int
	Fee              *uint256.Int
	AmountOut        *uint256.Int
	ReserveInBefore  *uint256.Int
	ReserveOutBefore *uint256.Int
	ReserveInAfter   *uint256.Int
	ReserveOutAfter  *uint256.Int
}

// Quote prices a swap of amountIn of assetIn without changing state.
func (p *Pool) Quote(assetIn Asset, amountIn, minAmountOut *uint256.Int) (SwapQuote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote(assetIn, amountIn, minAmountOut)
}

// Swap sells amountIn of assetIn for at least minAmountOut of the other asset.
// The input is pulled from trader and the output pushed back to trader.
func (p *Pool) Swap(ctx context.Context, trader common.Address, assetIn Asset, amountIn, minAmountOut *uint256.Int) (SwapQuote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.quote(assetIn, amountIn, minAmountOut)
	if err != nil {
		return SwapQuote{}, fmt.Errorf("swap: %w", err)
	}

	err = p.commit(ctx, "swap", func(tx *txn) ([]leg, error) {
		if err := p.ledger.deposit(tx, q.AssetIn, q.AmountIn); err != nil {
			return nil, fmt.Errorf("swap: %w", err)
		}
		if err := p.ledger.withdraw(tx, q.AssetOut, q.AmountOut); err != nil {
			return nil, fmt.Errorf("swap: %w", err)
		}

		reserveIn, _ := p.ledger.get(q.AssetIn)
		reserveOut, _ := p.ledger.get(q.AssetOut)
		if compareProducts(q.ReserveInBefore, q.ReserveOutBefore, reserveIn, reserveOut) < 0 {
			return nil, fmt.Errorf("swap: %w: (%s, %s) -> (%s, %s)", ErrInvariantViolated,
				Dec(q.ReserveInBefore), Dec(q.ReserveOutBefore), Dec(reserveIn), Dec(reserveOut))
		}

		tx.emit(SwapEvent{
			Trader:    trader,
			AssetIn:   q.AssetIn,
			AssetOut:  q.AssetOut,
			AmountIn:  q.AmountIn.Clone(),
			AmountOut: q.AmountOut.Clone(),
			Fee:       q.Fee.Clone(),
			ReserveA:  p.ledger.reserveA.Clone(),
			ReserveB:  p.ledger.reserveB.Clone(),
		})
		return []leg{
			pull(q.AssetIn, trader, q.AmountIn),
			push(q.AssetOut, trader, q.AmountOut),
		}, nil
	})
	if err != nil {
		return SwapQuote{}, err
	}

	p.logger.Debug("swap",
		zap.String("trader", trader.Hex()),
		zap.String("asset_in", q.AssetIn.String()),
		zap.String("amount_in", Dec(q.AmountIn)),
		zap.String("amount_out", Dec(q.AmountOut)),
	)
	return q, nil
}

func (p *Pool) quote(assetIn Asset, amountIn, minAmountOut *uint256.Int) (SwapQuote, error) {
	if amountIn == nil || amountIn.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: amount in must be positive", ErrInvalidAmount)
	}
	if minAmountOut == nil {
		minAmountOut = zero()
	}

	assetOut, err := p.ledger.counterpart(assetIn)
	if err != nil {
		return SwapQuote{}, err
	}
	if !p.ledger.seeded() {
		return SwapQuote{}, fmt.Errorf("%w: pool not seeded", ErrInsufficientLiquidity)
	}
	reserveIn, _ := p.ledger.get(assetIn)
	reserveOut, _ := p.ledger.get(assetOut)

	feeFactor := uint256.NewInt(uint64(feeDenominator - p.cfg.FeeBps))
	amountInAfterFee, err := mulDiv(amountIn, feeFactor, uint256.NewInt(feeDenominator))
	if err != nil {
		return SwapQuote{}, err
	}
	if amountInAfterFee.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: amount %s is consumed by the fee", ErrInvalidAmount, Dec(amountIn))
	}

	// amountOut = reserveOut - k / (reserveIn + x). The quotient never exceeds
	// reserveOut since the denominator is at least reserveIn.
	denominator, err := checkedAdd(reserveIn, amountInAfterFee)
	if err != nil {
		return SwapQuote{}, err
	}
	remaining, err := mulDiv(reserveIn, reserveOut, denominator)
	if err != nil {
		return SwapQuote{}, err
	}
	amountOut := new(uint256.Int).Sub(reserveOut, remaining)

	if amountOut.Lt(minAmountOut) {
		return SwapQuote{}, fmt.Errorf("%w: amount out %s below minimum %s", ErrSlippageExceeded, Dec(amountOut), Dec(minAmountOut))
	}
	if amountOut.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: amount out rounds to zero", ErrInsufficientLiquidity)
	}
	reserveOutAfter := new(uint256.Int).Sub(reserveOut, amountOut)
	if reserveOutAfter.IsZero() || reserveOutAfter.Lt(p.cfg.MinReserve) {
		return SwapQuote{}, fmt.Errorf("%w: reserve %s would fall to %s (floor %s)",
			ErrInsufficientLiquidity, assetOut, Dec(reserveOutAfter), Dec(p.cfg.MinReserve))
	}
	reserveInAfter, err := checkedAdd(reserveIn, amountIn)
	if err != nil {
		return SwapQuote{}, err
	}
	// a fee-bearing swap must grow the product, a fee-free one may keep it.
	cmp := compareProducts(reserveIn, reserveOut, reserveInAfter, reserveOutAfter)
	if cmp < 0 || (cmp == 0 && p.cfg.FeeBps > 0) {
		return SwapQuote{}, fmt.Errorf("%w: (%s, %s) -> (%s, %s)", ErrInvariantViolated,
			Dec(reserveIn), Dec(reserveOut), Dec(reserveInAfter), Dec(reserveOutAfter))
	}

	return SwapQuote{
		AssetIn:          assetIn,
		AssetOut:         assetOut,
		AmountIn:         amountIn.Clone(),
		AmountInAfterFee: amountInAfterFee,
		Fee:              new(uint256.Int).Sub(amountIn, amountInAfterFee),
		AmountOut:        amountOut,
		ReserveInBefore:  reserveIn,
		ReserveOutBefore: reserveOut,
		ReserveInAfter:   reserveInAfter,
		ReserveOutAfter:  reserveOutAfter,
	}, nil
}
