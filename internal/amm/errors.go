package amm

import "errors"

// Pool errors. Every failed operation returns one of these (possibly wrapped)
// and leaves the pool state untouched.
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrOverflow              = errors.New("arithmetic overflow")
	ErrInsufficientReserve   = errors.New("insufficient reserve")
	ErrInsufficientShares    = errors.New("insufficient shares")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrAmountMismatch        = errors.New("attached value does not match declared amount")
	ErrUnknownAsset          = errors.New("asset not traded by pool")
	ErrNotNativePool         = errors.New("pool has no native side")
	ErrNativeValueRequired   = errors.New("native side must be attached as value")
	ErrInvariantViolated     = errors.New("constant product decreased")
	ErrTransferFailed        = errors.New("asset transfer failed")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrOverflow, "overflow"},
	{ErrInsufficientReserve, "insufficient_reserve"},
	{ErrInsufficientShares, "insufficient_shares"},
	{ErrSlippageExceeded, "slippage_exceeded"},
	{ErrInsufficientLiquidity, "insufficient_liquidity"},
	{ErrAmountMismatch, "amount_mismatch"},
	{ErrUnknownAsset, "unknown_asset"},
	{ErrNotNativePool, "not_native_pool"},
	{ErrNativeValueRequired, "native_value_required"},
	{ErrInvariantViolated, "invariant_violated"},
	{ErrTransferFailed, "transfer_failed"},
}

// ErrorCode returns a stable snake_case code for err, "internal" for errors
// outside the pool taxonomy and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return "internal"
}
