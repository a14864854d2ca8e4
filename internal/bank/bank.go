// Package bank is an in-memory account ledger that settles pool transfers.
package bank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"monadAMM/internal/amm"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// Bank holds balances per asset and account. The pool's own balance is kept
// under the pool address so every Pull and Push moves value rather than
// minting it.
type Bank struct {
	mu       sync.Mutex
	pool     common.Address
	balances map[amm.Asset]map[common.Address]*uint256.Int
}

func New(pool common.Address) *Bank {
	return &Bank{
		pool:     pool,
		balances: make(map[amm.Asset]map[common.Address]*uint256.Int),
	}
}

// PoolAccount is the address holding the pool's side of every transfer.
func (b *Bank) PoolAccount() common.Address {
	return b.pool
}

// Credit mints amount of asset to account.
func (b *Bank) Credit(asset amm.Asset, account common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.credit(asset, account, amount)
}

// Debit burns amount of asset from account.
func (b *Bank) Debit(asset amm.Asset, account common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.debit(asset, account, amount)
}

func (b *Bank) BalanceOf(asset amm.Asset, account common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balanceOf(asset, account)
}

// Pull moves amount from an account to the pool.
func (b *Bank) Pull(_ context.Context, asset amm.Asset, from common.Address, amount *uint256.Int) error {
	return b.move(asset, from, b.pool, amount)
}

// Push moves amount from the pool to an account.
func (b *Bank) Push(_ context.Context, asset amm.Asset, to common.Address, amount *uint256.Int) error {
	return b.move(asset, b.pool, to, amount)
}

func (b *Bank) move(asset amm.Asset, from, to common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.debit(asset, from, amount); err != nil {
		return err
	}
	if err := b.credit(asset, to, amount); err != nil {
		_ = b.credit(asset, from, amount)
		return err
	}
	return nil
}

func (b *Bank) balanceOf(asset amm.Asset, account common.Address) *uint256.Int {
	if held, ok := b.balances[asset][account]; ok {
		return held.Clone()
	}
	return new(uint256.Int)
}

func (b *Bank) credit(asset amm.Asset, account common.Address, amount *uint256.Int) error {
	next, overflow := new(uint256.Int).AddOverflow(b.balanceOf(asset, account), amount)
	if overflow {
		return fmt.Errorf("credit %s to %s: %w", asset, account.Hex(), amm.ErrOverflow)
	}
	b.store(asset, account, next)
	return nil
}

func (b *Bank) debit(asset amm.Asset, account common.Address, amount *uint256.Int) error {
	held := b.balanceOf(asset, account)
	if amount.Gt(held) {
		return fmt.Errorf("%w: %s holds %s %s, needs %s",
			ErrInsufficientBalance, account.Hex(), amm.Dec(held), asset, amm.Dec(amount))
	}
	b.store(asset, account, new(uint256.Int).Sub(held, amount))
	return nil
}

func (b *Bank) store(asset amm.Asset, account common.Address, value *uint256.Int) {
	accounts, ok := b.balances[asset]
	if !ok {
		accounts = make(map[common.Address]*uint256.Int)
		b.balances[asset] = accounts
	}
	if value.IsZero() {
		delete(accounts, account)
		return
	}
	accounts[account] = value
}

// Balance is one non-zero holding.
type Balance struct {
	Asset   amm.Asset
	Account common.Address
	Amount  *uint256.Int
}

// Balances lists every non-zero holding ordered by asset then account.
func (b *Bank) Balances() []Balance {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Balance
	for asset, accounts := range b.balances {
		for account, amount := range accounts {
			out = append(out, Balance{Asset: asset, Account: account, Amount: amount.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Asset.String(), out[j].Asset.String()
		if ai != aj {
			return ai < aj
		}
		return out[i].Account.Hex() < out[j].Account.Hex()
	})
	return out
}

// Load replaces every balance with the given holdings.
func (b *Bank) Load(balances []Balance) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances = make(map[amm.Asset]map[common.Address]*uint256.Int)
	for _, bal := range balances {
		if bal.Amount == nil {
			continue
		}
		if err := b.credit(bal.Asset, bal.Account, bal.Amount); err != nil {
			return err
		}
	}
	return nil
}
