package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"monadAMM/internal/amm"
)

// State backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendPebble   = "pebble"
)

// PoolConfig describes the pool a command operates on.
type PoolConfig struct {
	TokenA       string
	TokenB       string
	FeeBps       uint16
	MinReserve   string
	BadgeBaseURI string
	PoolAddress  string
	ChainID      uint64
}

// StoreConfig selects where pool state and the event journal live.
type StoreConfig struct {
	Backend   string
	StateFile string
	PebbleDir string
	PGDSN     string
	Name      string
}

// Config holds the settings shared by every command.
type Config struct {
	Pool         PoolConfig
	Store        StoreConfig
	RPCURL       string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v)
}

// newViper applies shared defaults, then extra, then binds flags and reads
// the config file. Env vars use the AMM_ prefix.
func newViper(cfgFile string, flags *pflag.FlagSet, extra func(v *viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("fee-bps", 30)
	v.SetDefault("min-reserve", "1")
	v.SetDefault("badge-base-uri", amm.DefaultBadgeBaseURI)
	v.SetDefault("pool-address", "0x0000000000000000000000000000000000000a11")
	v.SetDefault("chain-id", uint64(10143))
	v.SetDefault("state-backend", BackendFile)
	v.SetDefault("state-file", "./data/state.json")
	v.SetDefault("pebble-dir", "./data/pebble")
	v.SetDefault("state-name", "default")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	if extra != nil {
		extra(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) (Config, error) {
	fee := v.GetUint("fee-bps")
	if fee > 0xffff {
		return Config{}, fmt.Errorf("fee-bps out of range: %d", fee)
	}
	cfg := Config{
		Pool: PoolConfig{
			TokenA:       v.GetString("token-a"),
			TokenB:       v.GetString("token-b"),
			FeeBps:       uint16(fee),
			MinReserve:   v.GetString("min-reserve"),
			BadgeBaseURI: v.GetString("badge-base-uri"),
			PoolAddress:  v.GetString("pool-address"),
			ChainID:      v.GetUint64("chain-id"),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(strings.TrimSpace(v.GetString("state-backend"))),
			StateFile: v.GetString("state-file"),
			PebbleDir: v.GetString("pebble-dir"),
			PGDSN:     v.GetString("pg-dsn"),
			Name:      v.GetString("state-name"),
		},
		RPCURL:       v.GetString("rpc"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	switch cfg.Store.Backend {
	case BackendFile, BackendPostgres, BackendPebble:
	default:
		return Config{}, fmt.Errorf("unknown state-backend %q", cfg.Store.Backend)
	}
	if cfg.Store.Backend == BackendPostgres && cfg.Store.PGDSN == "" {
		return Config{}, fmt.Errorf("pg-dsn is required for the postgres backend")
	}
	return cfg, nil
}

// AMM builds the pool parameters.
func (p PoolConfig) AMM() (amm.Config, error) {
	if p.TokenA == "" || p.TokenB == "" {
		return amm.Config{}, fmt.Errorf("token-a and token-b are required")
	}
	assetA, err := amm.ParseAsset(p.TokenA)
	if err != nil {
		return amm.Config{}, fmt.Errorf("token-a: %w", err)
	}
	assetB, err := amm.ParseAsset(p.TokenB)
	if err != nil {
		return amm.Config{}, fmt.Errorf("token-b: %w", err)
	}
	minReserve, err := amm.ParseAmount(p.MinReserve)
	if err != nil {
		return amm.Config{}, fmt.Errorf("min-reserve: %w", err)
	}
	cfg := amm.Config{
		AssetA:       assetA,
		AssetB:       assetB,
		FeeBps:       p.FeeBps,
		MinReserve:   minReserve,
		BadgeBaseURI: p.BadgeBaseURI,
	}
	if err := cfg.Validate(); err != nil {
		return amm.Config{}, err
	}
	return cfg, nil
}

// Address returns the account that holds the pool's assets.
func (p PoolConfig) Address() (common.Address, error) {
	if !common.IsHexAddress(p.PoolAddress) {
		return common.Address{}, fmt.Errorf("invalid pool-address: %q", p.PoolAddress)
	}
	return common.HexToAddress(p.PoolAddress), nil
}

// TokenAddresses lists the ERC20 sides of the pool.
func (p PoolConfig) TokenAddresses() ([]common.Address, error) {
	var out []common.Address
	for _, raw := range []string{p.TokenA, p.TokenB} {
		asset, err := amm.ParseAsset(raw)
		if err != nil {
			return nil, err
		}
		if !asset.IsNative() {
			out = append(out, asset.Token)
		}
	}
	return out, nil
}
