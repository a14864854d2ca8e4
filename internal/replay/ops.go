package replay

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"monadAMM/internal/amm"
	"monadAMM/internal/model"
)

func (r *Runner) execute(ctx context.Context, op model.Operation) error {
	account, err := parseAccount("account", op.Account)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}

	switch op.Op {
	case model.OpFund:
		return r.fund(account, op)
	case model.OpAddLiquidity:
		return r.addLiquidity(ctx, account, op)
	case model.OpAddLiquidityNative:
		return r.addLiquidityNative(ctx, account, op)
	case model.OpSwap:
		return r.swap(ctx, account, op)
	case model.OpRemoveLiquidity:
		return r.removeLiquidity(ctx, account, op)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidOperation, op.Op)
	}
}

func (r *Runner) fund(account common.Address, op model.Operation) error {
	asset, err := amm.ParseAsset(op.Asset)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	amount, err := parseAmount("amount", op.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	return r.bank.Credit(asset, account, amount)
}

func (r *Runner) addLiquidity(ctx context.Context, account common.Address, op model.Operation) error {
	amounts, err := parseAll(
		field{"amount_a_desired", op.AmountADesired, false},
		field{"amount_b_desired", op.AmountBDesired, false},
		field{"amount_a_min", op.AmountAMin, true},
		field{"amount_b_min", op.AmountBMin, true},
	)
	if err != nil {
		return err
	}
	result, err := r.pool.AddLiquidity(ctx, account, amounts[0], amounts[1], amounts[2], amounts[3])
	if err != nil {
		return err
	}
	r.logger.Debug("liquidity added",
		zap.String("provider", account.Hex()),
		zap.String("shares", amm.Dec(result.Shares)),
	)
	return nil
}

// addLiquidityNative attaches value the way a payable call would: it leaves
// the caller before the pool runs and comes back if the pool rejects the call.
func (r *Runner) addLiquidityNative(ctx context.Context, account common.Address, op model.Operation) error {
	amounts, err := parseAll(
		field{"amount_token_desired", op.AmountTokenDesired, false},
		field{"amount_native_desired", op.AmountNativeDesired, false},
		field{"amount_token_min", op.AmountTokenMin, true},
		field{"amount_native_min", op.AmountNativeMin, true},
		field{"value", op.Value, false},
	)
	if err != nil {
		return err
	}
	value := amounts[4]

	if err := r.attach(ctx, account, value); err != nil {
		return err
	}
	result, err := r.pool.AddLiquidityNative(ctx, account, amounts[0], amounts[1], amounts[2], amounts[3], value)
	if err != nil {
		r.detach(ctx, account, value)
		return err
	}
	r.logger.Debug("native liquidity added",
		zap.String("provider", account.Hex()),
		zap.String("shares", amm.Dec(result.Shares)),
		zap.String("refund", amm.Dec(result.NativeRefund)),
	)
	return nil
}

func (r *Runner) attach(ctx context.Context, account common.Address, value *uint256.Int) error {
	if value.IsZero() {
		return nil
	}
	if err := r.bank.Pull(ctx, amm.Native(), account, value); err != nil {
		return fmt.Errorf("attach value: %w", err)
	}
	return nil
}

func (r *Runner) detach(ctx context.Context, account common.Address, value *uint256.Int) {
	if value.IsZero() {
		return
	}
	if err := r.bank.Push(ctx, amm.Native(), account, value); err != nil {
		r.logger.Error("refund attached value failed", zap.String("account", account.Hex()), zap.Error(err))
	}
}

func (r *Runner) swap(ctx context.Context, account common.Address, op model.Operation) error {
	assetIn, err := amm.ParseAsset(op.AssetIn)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	amounts, err := parseAll(
		field{"amount_in", op.AmountIn, false},
		field{"min_amount_out", op.MinAmountOut, true},
	)
	if err != nil {
		return err
	}
	q, err := r.pool.Swap(ctx, account, assetIn, amounts[0], amounts[1])
	if err != nil {
		return err
	}
	r.logger.Debug("swap",
		zap.String("trader", account.Hex()),
		zap.String("amount_in", amm.Dec(q.AmountIn)),
		zap.String("amount_out", amm.Dec(q.AmountOut)),
	)
	return nil
}

func (r *Runner) removeLiquidity(ctx context.Context, account common.Address, op model.Operation) error {
	amounts, err := parseAll(
		field{"shares", op.Shares, false},
		field{"amount_a_min", op.AmountAMin, true},
		field{"amount_b_min", op.AmountBMin, true},
	)
	if err != nil {
		return err
	}
	_, err = r.pool.RemoveLiquidity(ctx, account, amounts[0], amounts[1], amounts[2])
	return err
}

type field struct {
	name     string
	value    string
	optional bool
}

func parseAll(fields ...field) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(fields))
	for i, f := range fields {
		var err error
		if f.optional {
			out[i], err = parseOptional(f.name, f.value)
		} else {
			out[i], err = parseAmount(f.name, f.value)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
		}
	}
	return out, nil
}
