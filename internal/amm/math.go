package amm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

const feeDenominator = 10_000

func zero() *uint256.Int {
	return new(uint256.Int)
}

func checkedAdd(x, y *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: %s + %s", ErrOverflow, Dec(x), Dec(y))
	}
	return sum, nil
}

// mulDiv computes floor(x*y/d) with a 512-bit intermediate product.
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("%w: division by zero", ErrInsufficientLiquidity)
	}
	result, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s / %s", ErrOverflow, Dec(x), Dec(y), Dec(d))
	}
	return result, nil
}

// isqrt returns floor(sqrt(x*y)). The product is formed in big.Int so seeding
// amounts whose product exceeds 256 bits still produce a share count.
func isqrt(x, y *uint256.Int) (*uint256.Int, error) {
	product := new(big.Int).Mul(x.ToBig(), y.ToBig())
	root, overflow := uint256.FromBig(new(big.Int).Sqrt(product))
	if overflow {
		return nil, fmt.Errorf("%w: sqrt(%s * %s)", ErrOverflow, Dec(x), Dec(y))
	}
	return root, nil
}

// compareProducts compares x1*y1 against x0*y0 using unbounded integers.
func compareProducts(x0, y0, x1, y1 *uint256.Int) int {
	before := new(big.Int).Mul(x0.ToBig(), y0.ToBig())
	after := new(big.Int).Mul(x1.ToBig(), y1.ToBig())
	return after.Cmp(before)
}

func minInt(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x
	}
	return y
}

// Dec renders an amount as a base-10 string; nil renders as "0".
func Dec(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.ToBig().String()
}

// ParseAmount parses a base-10 amount in the u256 domain.
func ParseAmount(input string) (*uint256.Int, error) {
	if input == "" {
		return zero(), nil
	}
	parsed, ok := new(big.Int).SetString(input, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	value, overflow := uint256.FromBig(parsed)
	if overflow {
		return nil, fmt.Errorf("%w: %q", ErrOverflow, input)
	}
	return value, nil
}
