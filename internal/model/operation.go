package model

// Operation is one line of a replay script. Amounts are base-10 strings;
// unused fields are left empty.
type Operation struct {
	Op      string `json:"op"`
	Account string `json:"account"`
	Asset   string `json:"asset,omitempty"`
	Amount  string `json:"amount,omitempty"`

	AmountADesired string `json:"amount_a_desired,omitempty"`
	AmountBDesired string `json:"amount_b_desired,omitempty"`
	AmountAMin     string `json:"amount_a_min,omitempty"`
	AmountBMin     string `json:"amount_b_min,omitempty"`

	AmountTokenDesired  string `json:"amount_token_desired,omitempty"`
	AmountNativeDesired string `json:"amount_native_desired,omitempty"`
	AmountTokenMin      string `json:"amount_token_min,omitempty"`
	AmountNativeMin     string `json:"amount_native_min,omitempty"`
	Value               string `json:"value,omitempty"`

	AssetIn      string `json:"asset_in,omitempty"`
	AmountIn     string `json:"amount_in,omitempty"`
	MinAmountOut string `json:"min_amount_out,omitempty"`

	Shares string `json:"shares,omitempty"`

	Timestamp uint64 `json:"timestamp,omitempty"`
}

const (
	OpFund               = "fund"
	OpAddLiquidity       = "add_liquidity"
	OpAddLiquidityNative = "add_liquidity_native"
	OpSwap               = "swap"
	OpRemoveLiquidity    = "remove_liquidity"
)
