package model

// PoolMeta describes the pool an event belongs to.
type PoolMeta struct {
	TokenA string `json:"token_a"`
	TokenB string `json:"token_b"`
	FeeBps uint16 `json:"fee_bps"`
}
