package model

// SwapEventData is the decoded Swap event payload.
type SwapEventData struct {
	Trader    string `json:"trader"`
	TokenIn   string `json:"token_in"`
	TokenOut  string `json:"token_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	Fee       string `json:"fee"`
	ReserveA  string `json:"reserve_a"`
	ReserveB  string `json:"reserve_b"`
}

// LiquidityEventData is the decoded LiquidityAdded or LiquidityRemoved payload.
type LiquidityEventData struct {
	Provider    string `json:"provider"`
	AmountA     string `json:"amount_a"`
	AmountB     string `json:"amount_b"`
	Shares      string `json:"shares"`
	ReserveA    string `json:"reserve_a"`
	ReserveB    string `json:"reserve_b"`
	TotalSupply string `json:"total_supply"`
}

// BadgeIssuedEventData is the decoded BadgeIssued payload.
type BadgeIssuedEventData struct {
	Owner       string `json:"owner"`
	TokenID     string `json:"token_id"`
	MetadataURI string `json:"metadata_uri"`
}
