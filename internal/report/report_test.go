package report

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"monadAMM/internal/amm"
	"monadAMM/internal/model"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice     = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob       = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestFormatTokenAmount(t *testing.T) {
	cases := []struct {
		value    *big.Int
		decimals uint8
		want     string
	}{
		{nil, 18, "0"},
		{big.NewInt(1234567), 0, "1234567"},
		{big.NewInt(1234567), 6, "1.234567"},
		{big.NewInt(-5), 2, "-0.05"},
	}
	for _, tc := range cases {
		if got := FormatTokenAmount(tc.value, tc.decimals); got != tc.want {
			t.Fatalf("FormatTokenAmount(%v, %d) = %s, want %s", tc.value, tc.decimals, got, tc.want)
		}
	}
}

func testState() (amm.Config, amm.State) {
	cfg := amm.Config{AssetA: amm.Token(tokenAddr), AssetB: amm.Native(), FeeBps: 30}
	reserveB, _ := amm.ParseAmount("4000000000000000000")
	return cfg, amm.State{
		ReserveA:    uint256.NewInt(2_000_000),
		ReserveB:    reserveB,
		TotalSupply: uint256.NewInt(400),
		Positions: map[common.Address]*uint256.Int{
			alice: uint256.NewInt(300),
			bob:   uint256.NewInt(100),
		},
		Badges:      []amm.Badge{{Owner: alice, TokenID: 1, MetadataURI: "ipfs://x/1.json"}},
		NextBadgeID: 2,
	}
}

func TestBuild(t *testing.T) {
	cfg, st := testState()
	metas := map[common.Address]model.TokenMeta{
		tokenAddr: {Address: tokenAddr.Hex(), Decimals: 6, Symbol: "USDC"},
	}
	r := Build("default", cfg, st, metas, 12)

	if r.A.Formatted != "2.000000" || r.A.Meta.Symbol != "USDC" {
		t.Fatalf("side a = %+v", r.A)
	}
	if r.B.Asset != "native" || r.B.Meta.Decimals != 18 || r.B.Formatted != "4.000000000000000000" {
		t.Fatalf("side b = %+v", r.B)
	}
	if r.PriceAInB != "2.000000000000000000" {
		t.Fatalf("price = %s", r.PriceAInB)
	}
	if len(r.Positions) != 2 || r.Positions[0].Owner != alice.Hex() || r.Positions[0].Ratio != "0.750000000000000000" {
		t.Fatalf("positions = %+v", r.Positions)
	}
	if len(r.Badges) != 1 || r.LastApplied != 12 || r.BalanceMethod != BalanceMethodNone {
		t.Fatalf("report = %+v", r)
	}
}

func TestBuildEmptyPool(t *testing.T) {
	cfg, _ := testState()
	r := Build("default", cfg, amm.State{}, nil, 0)
	if r.PriceAInB != "" || r.TotalSupply != "0" || r.A.Formatted != "0" {
		t.Fatalf("report = %+v", r)
	}
}

// wordCaller answers every call with one ABI-encoded uint256.
type wordCaller struct {
	value *big.Int
	err   error
}

func (c wordCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return common.LeftPadBytes(c.value.Bytes(), 32), nil
}

func TestAttachBalances(t *testing.T) {
	cfg, st := testState()
	metas := map[common.Address]model.TokenMeta{tokenAddr: {Decimals: 6}}
	pool := common.HexToAddress("0x00000000000000000000000000000000000000ff")

	r := Build("default", cfg, st, metas, 0)
	AttachBalances(context.Background(), &r, wordCaller{value: big.NewInt(2_500_000)}, pool, nil)
	if r.BalanceMethod != BalanceMethodChain || r.A.OnChain != "2.500000" || r.B.OnChain != "" {
		t.Fatalf("report = %+v", r)
	}

	r = Build("default", cfg, st, metas, 0)
	AttachBalances(context.Background(), &r, wordCaller{err: errors.New("down")}, pool, nil)
	if r.BalanceMethod != BalanceMethodNone || r.A.OnChain != "" {
		t.Fatalf("report = %+v", r)
	}
}
