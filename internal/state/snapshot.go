package state

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"monadAMM/internal/amm"
	"monadAMM/internal/bank"
	"monadAMM/internal/model"
)

// Capture converts live pool and bank state into a snapshot.
func Capture(name string, cfg amm.Config, st amm.State, balances []bank.Balance, lastApplied uint64) model.Snapshot {
	positions := make(map[string]string, len(st.Positions))
	for owner, held := range st.Positions {
		positions[owner.Hex()] = amm.Dec(held)
	}

	badges := make([]model.BadgeRecord, 0, len(st.Badges))
	for _, badge := range st.Badges {
		badges = append(badges, model.BadgeRecord{
			Owner:       badge.Owner.Hex(),
			TokenID:     badge.TokenID,
			MetadataURI: badge.MetadataURI,
		})
	}

	var records []model.BalanceRecord
	for _, bal := range balances {
		records = append(records, model.BalanceRecord{
			Asset:   bal.Asset.String(),
			Account: bal.Account.Hex(),
			Amount:  amm.Dec(bal.Amount),
		})
	}

	return model.Snapshot{
		Name:        name,
		TokenA:      cfg.AssetA.String(),
		TokenB:      cfg.AssetB.String(),
		FeeBps:      cfg.FeeBps,
		ReserveA:    amm.Dec(st.ReserveA),
		ReserveB:    amm.Dec(st.ReserveB),
		TotalSupply: amm.Dec(st.TotalSupply),
		Positions:   positions,
		Badges:      badges,
		NextBadgeID: st.NextBadgeID,
		Balances:    records,
		LastApplied: lastApplied,
	}
}

// Rebuild parses a snapshot back into pool and bank state. The snapshot must
// describe the same pair and fee as cfg.
func Rebuild(cfg amm.Config, snap model.Snapshot) (amm.State, []bank.Balance, error) {
	if snap.TokenA != cfg.AssetA.String() || snap.TokenB != cfg.AssetB.String() || snap.FeeBps != cfg.FeeBps {
		return amm.State{}, nil, fmt.Errorf("snapshot pool %s/%s fee %d does not match configured %s/%s fee %d",
			snap.TokenA, snap.TokenB, snap.FeeBps, cfg.AssetA, cfg.AssetB, cfg.FeeBps)
	}

	var st amm.State
	var err error
	if st.ReserveA, err = amm.ParseAmount(snap.ReserveA); err != nil {
		return amm.State{}, nil, fmt.Errorf("reserve a: %w", err)
	}
	if st.ReserveB, err = amm.ParseAmount(snap.ReserveB); err != nil {
		return amm.State{}, nil, fmt.Errorf("reserve b: %w", err)
	}
	if st.TotalSupply, err = amm.ParseAmount(snap.TotalSupply); err != nil {
		return amm.State{}, nil, fmt.Errorf("total supply: %w", err)
	}

	st.Positions = make(map[common.Address]*uint256.Int, len(snap.Positions))
	for owner, held := range snap.Positions {
		if !common.IsHexAddress(owner) {
			return amm.State{}, nil, fmt.Errorf("position owner %q", owner)
		}
		amount, err := amm.ParseAmount(held)
		if err != nil {
			return amm.State{}, nil, fmt.Errorf("position %s: %w", owner, err)
		}
		st.Positions[common.HexToAddress(owner)] = amount
	}

	for _, rec := range snap.Badges {
		if !common.IsHexAddress(rec.Owner) {
			return amm.State{}, nil, fmt.Errorf("badge owner %q", rec.Owner)
		}
		st.Badges = append(st.Badges, amm.Badge{
			Owner:       common.HexToAddress(rec.Owner),
			TokenID:     rec.TokenID,
			MetadataURI: rec.MetadataURI,
		})
	}
	sort.Slice(st.Badges, func(i, j int) bool { return st.Badges[i].TokenID < st.Badges[j].TokenID })
	st.NextBadgeID = snap.NextBadgeID

	balances := make([]bank.Balance, 0, len(snap.Balances))
	for _, rec := range snap.Balances {
		asset, err := amm.ParseAsset(rec.Asset)
		if err != nil {
			return amm.State{}, nil, fmt.Errorf("balance asset: %w", err)
		}
		if !common.IsHexAddress(rec.Account) {
			return amm.State{}, nil, fmt.Errorf("balance account %q", rec.Account)
		}
		amount, err := amm.ParseAmount(rec.Amount)
		if err != nil {
			return amm.State{}, nil, fmt.Errorf("balance %s: %w", rec.Account, err)
		}
		balances = append(balances, bank.Balance{Asset: asset, Account: common.HexToAddress(rec.Account), Amount: amount})
	}
	return st, balances, nil
}
