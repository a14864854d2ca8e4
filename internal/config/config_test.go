package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"monadAMM/internal/amm"
)

const tokenHex = "0x00000000000000000000000000000000000000a1"

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, uint16(30), cfg.Pool.FeeBps)
	require.Equal(t, "1", cfg.Pool.MinReserve)
	require.Equal(t, amm.DefaultBadgeBaseURI, cfg.Pool.BadgeBaseURI)
	require.Equal(t, BackendFile, cfg.Store.Backend)
	require.Equal(t, "default", cfg.Store.Name)
	require.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
}

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "amm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token-a: "+tokenHex+"\ntoken-b: native\nfee-bps: 25\nbatch-size: 7\n"), 0o644))
	t.Setenv("AMM_FEE_BPS", "40")
	t.Setenv("AMM_STATE_NAME", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Uint("fee-bps", 30, "")
	flags.String("in", "", "")
	require.NoError(t, flags.Parse([]string{"--fee-bps=5", "--in=ops.jsonl"}))

	cfg, err := LoadReplay(path, flags)
	require.NoError(t, err)
	require.Equal(t, uint16(5), cfg.Pool.FeeBps)
	require.Equal(t, "from-env", cfg.Store.Name)
	require.Equal(t, "ops.jsonl", cfg.In)
	require.Equal(t, uint64(7), cfg.BatchSize)
	require.Equal(t, "./data/events.jsonl", cfg.Journal)

	pool, err := cfg.Pool.AMM()
	require.NoError(t, err)
	require.True(t, pool.AssetB.IsNative())
	require.Equal(t, uint16(5), pool.FeeBps)

	tokens, err := cfg.Pool.TokenAddresses()
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

func TestLoadRejectsBadBackend(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AMM_STATE_BACKEND", "redis")
	_, err := Load("", nil)
	require.Error(t, err)

	t.Setenv("AMM_STATE_BACKEND", "postgres")
	_, err = Load("", nil)
	require.ErrorContains(t, err, "pg-dsn")
}

func TestPoolConfigValidation(t *testing.T) {
	_, err := PoolConfig{TokenA: tokenHex}.AMM()
	require.Error(t, err)

	_, err = PoolConfig{TokenA: "native", TokenB: "native", MinReserve: "1"}.AMM()
	require.Error(t, err)

	_, err = PoolConfig{TokenA: tokenHex, TokenB: "native", FeeBps: 10000}.AMM()
	require.Error(t, err)

	_, err = PoolConfig{TokenA: tokenHex, TokenB: "native", MinReserve: "-1"}.AMM()
	require.ErrorIs(t, err, amm.ErrInvalidAmount)

	_, err = PoolConfig{PoolAddress: "nope"}.Address()
	require.Error(t, err)
}

func TestLoadServeAndEvents(t *testing.T) {
	chdir(t, t.TempDir())

	serve, err := LoadServe("", nil)
	require.NoError(t, err)
	require.Equal(t, ":8080", serve.Addr)

	events, err := LoadEvents("", nil)
	require.NoError(t, err)
	require.Equal(t, "./data/typed_events.jsonl", events.Out)
	require.Equal(t, "./data/decode_errors.jsonl", events.Errors)
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir for toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
