package report

import (
	"math/big"

	"github.com/holiman/uint256"
)

const ratioScale = 18

// FormatTokenAmount renders a base-unit amount with the given decimals.
func FormatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	text := new(big.Rat).SetFrac(abs, denom).FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

// ratio returns num/den as a decimal string, or "" when den is zero.
func ratio(num, den *uint256.Int) string {
	if num == nil || den == nil || den.IsZero() {
		return ""
	}
	return new(big.Rat).SetFrac(num.ToBig(), den.ToBig()).FloatString(ratioScale)
}

// scaledRatio returns (num / 10^numDec) / (den / 10^denDec), the human price.
func scaledRatio(num *uint256.Int, numDec uint8, den *uint256.Int, denDec uint8) string {
	if num == nil || den == nil || den.IsZero() {
		return ""
	}
	n := new(big.Int).Mul(num.ToBig(), pow10(denDec))
	d := new(big.Int).Mul(den.ToBig(), pow10(numDec))
	return new(big.Rat).SetFrac(n, d).FloatString(ratioScale)
}

func pow10(exp uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
