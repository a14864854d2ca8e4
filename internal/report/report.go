// Package report renders pool state for people: amounts scaled by token
// decimals, pool shares as fractions and reserves checked against on-chain
// balances when an RPC endpoint is available.
package report

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"monadAMM/internal/amm"
	"monadAMM/internal/dex"
	"monadAMM/internal/model"
)

// Balance sources.
const (
	BalanceMethodChain = "chain"
	BalanceMethodNone  = "none"
)

type Side struct {
	Asset     string          `json:"asset"`
	Meta      model.TokenMeta `json:"meta"`
	Reserve   string          `json:"reserve"`
	Formatted string          `json:"formatted"`
	// OnChain is the pool account's token balance when it could be read.
	OnChain string `json:"on_chain,omitempty"`
}

type Position struct {
	Owner  string `json:"owner"`
	Shares string `json:"shares"`
	Ratio  string `json:"ratio"`
}

type Report struct {
	Name          string              `json:"name"`
	FeeBps        uint16              `json:"fee_bps"`
	A             Side                `json:"a"`
	B             Side                `json:"b"`
	PriceAInB     string              `json:"price_a_in_b,omitempty"`
	TotalSupply   string              `json:"total_supply"`
	Positions     []Position          `json:"positions"`
	Badges        []model.BadgeRecord `json:"badges"`
	BalanceMethod string              `json:"balance_method"`
	LastApplied   uint64              `json:"last_applied"`
}

// Build renders st without any chain lookups. Metadata defaults to the raw
// address with zero decimals.
func Build(name string, cfg amm.Config, st amm.State, metas map[common.Address]model.TokenMeta, lastApplied uint64) Report {
	a := side(cfg.AssetA, st.ReserveA, metas)
	b := side(cfg.AssetB, st.ReserveB, metas)

	owners := make([]common.Address, 0, len(st.Positions))
	for owner := range st.Positions {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].Hex() < owners[j].Hex() })
	positions := make([]Position, 0, len(owners))
	for _, owner := range owners {
		held := st.Positions[owner]
		positions = append(positions, Position{Owner: owner.Hex(), Shares: amm.Dec(held), Ratio: ratio(held, st.TotalSupply)})
	}

	badges := make([]model.BadgeRecord, 0, len(st.Badges))
	for _, badge := range st.Badges {
		badges = append(badges, model.BadgeRecord{Owner: badge.Owner.Hex(), TokenID: badge.TokenID, MetadataURI: badge.MetadataURI})
	}

	return Report{
		Name:          name,
		FeeBps:        cfg.FeeBps,
		A:             a,
		B:             b,
		PriceAInB:     scaledRatio(st.ReserveB, b.Meta.Decimals, st.ReserveA, a.Meta.Decimals),
		TotalSupply:   amm.Dec(st.TotalSupply),
		Positions:     positions,
		Badges:        badges,
		BalanceMethod: BalanceMethodNone,
		LastApplied:   lastApplied,
	}
}

// AttachBalances reads the pool account's ERC20 balances. Native sides and
// failed calls are left empty.
func AttachBalances(ctx context.Context, r *Report, caller dex.ContractCaller, pool common.Address, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	method := BalanceMethodNone
	for _, s := range []*Side{&r.A, &r.B} {
		if s.Asset == "native" || !common.IsHexAddress(s.Asset) {
			continue
		}
		bal, err := dex.FetchTokenBalance(ctx, caller, common.HexToAddress(s.Asset), pool)
		if err != nil {
			logger.Warn("balanceOf failed", zap.String("token", s.Asset), zap.Error(err))
			continue
		}
		s.OnChain = FormatTokenAmount(bal, s.Meta.Decimals)
		method = BalanceMethodChain
	}
	r.BalanceMethod = method
}

func side(asset amm.Asset, reserve *uint256.Int, metas map[common.Address]model.TokenMeta) Side {
	meta, ok := metas[asset.Address()]
	if !ok {
		meta = model.TokenMeta{Address: asset.Address().Hex()}
		if asset.IsNative() {
			meta = dex.NativeMeta("")
		}
	}
	var value *big.Int
	if reserve != nil {
		value = reserve.ToBig()
	}
	return Side{
		Asset:     asset.String(),
		Meta:      meta,
		Reserve:   amm.Dec(reserve),
		Formatted: FormatTokenAmount(value, meta.Decimals),
	}
}
