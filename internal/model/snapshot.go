package model

// Snapshot is the persisted form of a pool and its settlement bank.
type Snapshot struct {
	Name        string            `json:"name"`
	TokenA      string            `json:"token_a"`
	TokenB      string            `json:"token_b"`
	FeeBps      uint16            `json:"fee_bps"`
	ReserveA    string            `json:"reserve_a"`
	ReserveB    string            `json:"reserve_b"`
	TotalSupply string            `json:"total_supply"`
	Positions   map[string]string `json:"positions"`
	Badges      []BadgeRecord     `json:"badges"`
	NextBadgeID uint64            `json:"next_badge_id"`
	Balances    []BalanceRecord   `json:"balances,omitempty"`
	LastApplied uint64            `json:"last_applied"`
	UpdatedAt   string            `json:"updated_at"`
}

// BadgeRecord is a persisted provider badge.
type BadgeRecord struct {
	Owner       string `json:"owner"`
	TokenID     uint64 `json:"token_id"`
	MetadataURI string `json:"metadata_uri"`
}

// BalanceRecord is a persisted bank holding.
type BalanceRecord struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}
