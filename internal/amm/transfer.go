package amm

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Transfer moves assets between accounts and the pool. Allowances are the
// caller's concern; Pull assumes the pool may already spend from the account.
type Transfer interface {
	Pull(ctx context.Context, asset Asset, from common.Address, amount *uint256.Int) error
	Push(ctx context.Context, asset Asset, to common.Address, amount *uint256.Int) error
}

type legKind uint8

const (
	legPull legKind = iota
	legPush
)

// leg is one external transfer scheduled after the state change.
type leg struct {
	kind    legKind
	asset   Asset
	account common.Address
	amount  *uint256.Int
}

func pull(asset Asset, from common.Address, amount *uint256.Int) leg {
	return leg{kind: legPull, asset: asset, account: from, amount: amount}
}

func push(asset Asset, to common.Address, amount *uint256.Int) leg {
	return leg{kind: legPush, asset: asset, account: to, amount: amount}
}

func (l leg) run(ctx context.Context, transfer Transfer) error {
	if l.amount == nil || l.amount.IsZero() {
		return nil
	}
	if l.kind == legPull {
		return transfer.Pull(ctx, l.asset, l.account, l.amount)
	}
	return transfer.Push(ctx, l.asset, l.account, l.amount)
}

// inverse undoes a completed leg.
func (l leg) inverse() leg {
	if l.kind == legPull {
		return push(l.asset, l.account, l.amount)
	}
	return pull(l.asset, l.account, l.amount)
}
