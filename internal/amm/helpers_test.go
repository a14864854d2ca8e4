package amm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	tokenA = Token(common.HexToAddress("0x00000000000000000000000000000000000000a1"))
	tokenB = Token(common.HexToAddress("0x00000000000000000000000000000000000000b2"))
	alice  = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol  = common.HexToAddress("0x00000000000000000000000000000000000ca201")
)

var errTransferRejected = errors.New("transfer rejected")

type transferCall struct {
	pull    bool
	asset   Asset
	account common.Address
	amount  string
}

// fakeTransfer tracks account balances when strict and can reject the n-th call.
type fakeTransfer struct {
	strict   bool
	balances map[Asset]map[common.Address]*uint256.Int
	calls    []transferCall
	failAt   int
}

func newFakeTransfer(strict bool) *fakeTransfer {
	return &fakeTransfer{strict: strict, balances: make(map[Asset]map[common.Address]*uint256.Int), failAt: -1}
}

func (f *fakeTransfer) fund(asset Asset, account common.Address, amount uint64) {
	if f.balances[asset] == nil {
		f.balances[asset] = make(map[common.Address]*uint256.Int)
	}
	f.balances[asset][account] = new(uint256.Int).Add(f.balanceOf(asset, account), uint256.NewInt(amount))
}

func (f *fakeTransfer) balanceOf(asset Asset, account common.Address) *uint256.Int {
	if held, ok := f.balances[asset][account]; ok {
		return held.Clone()
	}
	return new(uint256.Int)
}

func (f *fakeTransfer) Pull(_ context.Context, asset Asset, from common.Address, amount *uint256.Int) error {
	if err := f.record(true, asset, from, amount); err != nil {
		return err
	}
	if !f.strict {
		return nil
	}
	held := f.balanceOf(asset, from)
	if amount.Gt(held) {
		return fmt.Errorf("balance %s below %s", held, amount)
	}
	f.balances[asset][from] = new(uint256.Int).Sub(held, amount)
	return nil
}

func (f *fakeTransfer) Push(_ context.Context, asset Asset, to common.Address, amount *uint256.Int) error {
	if err := f.record(false, asset, to, amount); err != nil {
		return err
	}
	if f.strict {
		if f.balances[asset] == nil {
			f.balances[asset] = make(map[common.Address]*uint256.Int)
		}
		f.balances[asset][to] = new(uint256.Int).Add(f.balanceOf(asset, to), amount)
	}
	return nil
}

func (f *fakeTransfer) record(pull bool, asset Asset, account common.Address, amount *uint256.Int) error {
	n := len(f.calls)
	f.calls = append(f.calls, transferCall{pull: pull, asset: asset, account: account, amount: Dec(amount)})
	if n == f.failAt {
		return errTransferRejected
	}
	return nil
}

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

type failingSink struct{}

func (failingSink) Publish(context.Context, []Event) error { return errors.New("sink down") }

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func newTestPool(t testingT, fee uint16, transfer Transfer, sink EventSink) *Pool {
	t.Helper()
	pool, err := New(Config{AssetA: tokenA, AssetB: tokenB, FeeBps: fee}, transfer, sink, nil)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return pool
}

func seededPool(t testingT, a, b uint64) (*Pool, *MemorySink) {
	t.Helper()
	sink := &MemorySink{}
	pool := newTestPool(t, 30, newFakeTransfer(false), sink)
	if _, err := pool.AddLiquidity(context.Background(), alice, u(a), u(b), nil, nil); err != nil {
		t.Fatalf("seed pool: %v", err)
	}
	sink.Events = nil
	return pool, sink
}

func assertReserves(t testingT, pool *Pool, a, b uint64) {
	t.Helper()
	gotA, gotB := pool.Reserves()
	if !gotA.Eq(u(a)) || !gotB.Eq(u(b)) {
		t.Fatalf("reserves = (%s, %s), want (%d, %d)", Dec(gotA), Dec(gotB), a, b)
	}
}
