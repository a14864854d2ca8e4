package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"monadAMM/internal/model"
)

// NativeDecimals is the precision of the chain's native coin.
const NativeDecimals = 18

// ContractCaller performs read-only contract calls. *chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	cache *lru.Cache[common.Address, model.TokenMeta]
}

func NewTokenMetaCache(size int) (*TokenMetaCache, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[common.Address, model.TokenMeta](size)
	if err != nil {
		return nil, err
	}
	return &TokenMetaCache{cache: cache}, nil
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	return c.cache.Get(address)
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.cache.Add(address, meta)
}

// NativeMeta describes the native coin.
func NativeMeta(symbol string) model.TokenMeta {
	if symbol == "" {
		symbol = "NATIVE"
	}
	return model.TokenMeta{Address: common.Address{}.Hex(), Decimals: NativeDecimals, Symbol: symbol, Name: symbol}
}

// ResolveTokenMetas fetches metadata for every token concurrently, serving
// cached entries without a call. A token whose lookup fails is returned with
// only its address set and the failure logged.
func ResolveTokenMetas(ctx context.Context, caller ContractCaller, cache *TokenMetaCache, tokens []common.Address, logger *zap.Logger) (map[common.Address]model.TokenMeta, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	metas := make([]model.TokenMeta, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, token := range tokens {
		i, token := i, token
		if cache != nil {
			if meta, ok := cache.Get(token); ok {
				metas[i] = meta
				continue
			}
		}
		g.Go(func() error {
			meta, err := FetchTokenMeta(gctx, caller, token, logger)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
			} else if cache != nil {
				cache.Set(token, meta)
			}
			metas[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[common.Address]model.TokenMeta, len(tokens))
	for i, token := range tokens {
		out[token] = metas[i]
	}
	return out, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	stringABI, bytes32ABI, err := erc20ABIs()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}

	values, err := callToken(ctx, caller, token, stringABI, "decimals")
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := callToken(ctx, caller, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := callToken(ctx, caller, token, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := callToken(ctx, caller, token, stringABI, "name"); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := callToken(ctx, caller, token, bytes32ABI, "name"); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

// FetchTokenBalance returns the ERC20 balance of account.
func FetchTokenBalance(ctx context.Context, caller ContractCaller, token, account common.Address) (*big.Int, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	stringABI, _, err := erc20ABIs()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callToken(ctx, caller, token, stringABI, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

func callToken(ctx context.Context, caller ContractCaller, token common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &token, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: no values", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
