package amm

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"pgregory.net/rapid"
)

func product(a, b *uint256.Int) *big.Int {
	return new(big.Int).Mul(a.ToBig(), b.ToBig())
}

func TestSwapNeverDecreasesProduct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64Range(1, 1<<50).Draw(t, "reserveA")
		b := rapid.Uint64Range(1, 1<<50).Draw(t, "reserveB")
		fee := rapid.Uint16Range(0, 1000).Draw(t, "fee")
		in := rapid.Uint64Range(1, 1<<52).Draw(t, "amountIn")
		aToB := rapid.Bool().Draw(t, "aToB")

		pool := newTestPool(t, fee, newFakeTransfer(false), nil)
		if _, err := pool.AddLiquidity(context.Background(), alice, u(a), u(b), nil, nil); err != nil {
			t.Fatalf("seed: %v", err)
		}
		assetIn := tokenA
		if !aToB {
			assetIn = tokenB
		}

		beforeA, beforeB := pool.Reserves()
		q, err := pool.Swap(context.Background(), bob, assetIn, u(in), nil)
		afterA, afterB := pool.Reserves()
		if err != nil {
			if !beforeA.Eq(afterA) || !beforeB.Eq(afterB) {
				t.Fatalf("failed swap changed reserves: %v", err)
			}
			return
		}

		k0, k1 := product(beforeA, beforeB), product(afterA, afterB)
		if k1.Cmp(k0) < 0 {
			t.Fatalf("product decreased: %s -> %s", k0, k1)
		}
		if fee > 0 && k1.Cmp(k0) == 0 {
			t.Fatalf("fee-bearing swap did not grow product: %s", k0)
		}
		if q.AmountOut.IsZero() {
			t.Fatalf("committed swap paid nothing")
		}
	})
}

func TestRoundTripSwapNeverProfits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64Range(1000, 1<<50).Draw(t, "reserveA")
		b := rapid.Uint64Range(1000, 1<<50).Draw(t, "reserveB")
		fee := rapid.Uint16Range(0, 1000).Draw(t, "fee")
		in := rapid.Uint64Range(1, 1<<50).Draw(t, "amountIn")

		pool := newTestPool(t, fee, newFakeTransfer(false), nil)
		ctx := context.Background()
		if _, err := pool.AddLiquidity(ctx, alice, u(a), u(b), nil, nil); err != nil {
			t.Fatalf("seed: %v", err)
		}
		out, err := pool.Swap(ctx, bob, tokenA, u(in), nil)
		if err != nil {
			return
		}
		back, err := pool.Swap(ctx, bob, tokenB, out.AmountOut, nil)
		if err != nil {
			return
		}
		if back.AmountOut.Gt(u(in)) {
			t.Fatalf("round trip of %d returned %s", in, Dec(back.AmountOut))
		}
	})
}

func TestDepositWithdrawNeverProfits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64Range(1, 1<<50).Draw(t, "reserveA")
		b := rapid.Uint64Range(1, 1<<50).Draw(t, "reserveB")
		depA := rapid.Uint64Range(1, 1<<50).Draw(t, "depositA")
		depB := rapid.Uint64Range(1, 1<<50).Draw(t, "depositB")

		pool := newTestPool(t, 30, newFakeTransfer(false), nil)
		ctx := context.Background()
		if _, err := pool.AddLiquidity(ctx, alice, u(a), u(b), nil, nil); err != nil {
			t.Fatalf("seed: %v", err)
		}
		added, err := pool.AddLiquidity(ctx, bob, u(depA), u(depB), nil, nil)
		if err != nil {
			return
		}
		if added.AmountA.Gt(u(depA)) || added.AmountB.Gt(u(depB)) {
			t.Fatalf("deposit took more than desired: (%s, %s)", Dec(added.AmountA), Dec(added.AmountB))
		}
		removed, err := pool.RemoveLiquidity(ctx, bob, added.Shares, nil, nil)
		if err != nil {
			return
		}
		if removed.AmountA.Gt(added.AmountA) || removed.AmountB.Gt(added.AmountB) {
			t.Fatalf("withdrew (%s, %s) after depositing (%s, %s)",
				Dec(removed.AmountA), Dec(removed.AmountB), Dec(added.AmountA), Dec(added.AmountB))
		}
	})
}

func TestSharesAlwaysSumToSupply(t *testing.T) {
	actors := []common.Address{alice, bob, carol}

	rapid.Check(t, func(t *rapid.T) {
		pool := newTestPool(t, 30, newFakeTransfer(false), nil)
		ctx := context.Background()

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			who := rapid.SampledFrom(actors).Draw(t, "actor")
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				x := rapid.Uint64Range(1, 1<<40).Draw(t, "x")
				y := rapid.Uint64Range(1, 1<<40).Draw(t, "y")
				_, _ = pool.AddLiquidity(ctx, who, u(x), u(y), nil, nil)
			case 1:
				held := pool.ShareOf(who)
				if held.IsZero() {
					continue
				}
				n := rapid.Uint64Range(1, held.Uint64()).Draw(t, "shares")
				_, _ = pool.RemoveLiquidity(ctx, who, u(n), nil, nil)
			case 2:
				x := rapid.Uint64Range(1, 1<<40).Draw(t, "amountIn")
				in := tokenA
				if rapid.Bool().Draw(t, "bToA") {
					in = tokenB
				}
				_, _ = pool.Swap(ctx, who, in, u(x), nil)
			}

			state := pool.State()
			sum := new(uint256.Int)
			for _, held := range state.Positions {
				sum.Add(sum, held)
			}
			if !sum.Eq(state.TotalSupply) {
				t.Fatalf("positions sum %s != supply %s", Dec(sum), Dec(state.TotalSupply))
			}
			seeded := !state.ReserveA.IsZero() && !state.ReserveB.IsZero()
			if seeded == state.TotalSupply.IsZero() {
				t.Fatalf("reserves (%s, %s) disagree with supply %s",
					Dec(state.ReserveA), Dec(state.ReserveB), Dec(state.TotalSupply))
			}
		}
	})
}
