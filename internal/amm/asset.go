package amm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AssetKind distinguishes ERC20-like tokens from the chain's native coin.
type AssetKind uint8

const (
	KindToken AssetKind = iota
	KindNative
)

// Asset identifies one side of a pool.
type Asset struct {
	Kind  AssetKind
	Token common.Address
}

// Token returns the asset for an ERC20-like token contract.
func Token(address common.Address) Asset {
	return Asset{Kind: KindToken, Token: address}
}

// Native returns the native-coin asset.
func Native() Asset {
	return Asset{Kind: KindNative}
}

// IsNative reports whether a is the native coin.
func (a Asset) IsNative() bool {
	return a.Kind == KindNative
}

// Address returns the token address, or the zero address for the native coin.
func (a Asset) Address() common.Address {
	if a.IsNative() {
		return common.Address{}
	}
	return a.Token
}

func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return a.Token.Hex()
}

// ParseAsset accepts a hex token address or the literal "native".
func ParseAsset(input string) (Asset, error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "native") {
		return Native(), nil
	}
	if !common.IsHexAddress(input) {
		return Asset{}, fmt.Errorf("invalid asset: %q", input)
	}
	return Token(common.HexToAddress(input)), nil
}
