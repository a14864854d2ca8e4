package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"monadAMM/internal/amm"
)

var (
	tokenA = amm.Token(common.HexToAddress("0x00000000000000000000000000000000000000a1"))
	cfg    = amm.Config{AssetA: tokenA, AssetB: amm.Native(), FeeBps: 30}
)

func TestCollectorCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "default", cfg)

	err := c.Publish(context.Background(), []amm.Event{
		amm.LiquidityAddedEvent{LiquidityChange: amm.LiquidityChange{
			ReserveA: uint256.NewInt(100), ReserveB: uint256.NewInt(400), TotalSupply: uint256.NewInt(200),
		}},
		amm.BadgeIssuedEvent{},
		amm.SwapEvent{
			AssetIn: tokenA, AssetOut: amm.Native(),
			AmountIn: uint256.NewInt(10), AmountOut: uint256.NewInt(34), Fee: uint256.NewInt(1),
			ReserveA: uint256.NewInt(110), ReserveB: uint256.NewInt(366),
		},
	})
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(c.SwapsTotal.WithLabelValues(tokenA.String())))
	require.Equal(t, 10.0, testutil.ToFloat64(c.SwapVolume.WithLabelValues(tokenA.String())))
	require.Equal(t, 1.0, testutil.ToFloat64(c.SwapFees.WithLabelValues(tokenA.String())))
	require.Equal(t, 1.0, testutil.ToFloat64(c.LiquidityEvents.WithLabelValues("added")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.BadgesIssued))
	require.Equal(t, 110.0, testutil.ToFloat64(c.Reserves.WithLabelValues(tokenA.String())))
	require.Equal(t, 366.0, testutil.ToFloat64(c.Reserves.WithLabelValues("native")))
	require.Equal(t, 200.0, testutil.ToFloat64(c.LPSupply))
}

func TestObserveFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "default", cfg)

	c.ObserveFailure("swap", amm.ErrorCode(fmt.Errorf("swap: %w", amm.ErrSlippageExceeded)))
	c.ObserveFailure("swap", amm.ErrorCode(errors.New("disk full")))
	c.ObserveFailure("swap", "slippage_exceeded")

	require.Equal(t, 2.0, testutil.ToFloat64(c.FailedOperations.WithLabelValues("swap", "slippage_exceeded")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.FailedOperations.WithLabelValues("swap", "internal")))
}

func TestHandlerExposesPoolMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "default", cfg)
	c.Sync(amm.State{ReserveA: uint256.NewInt(5), ReserveB: uint256.NewInt(7), TotalSupply: uint256.NewInt(5)})

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `amm_pool_lp_supply{pool="default"} 5`))
}

func TestDisabledServer(t *testing.T) {
	s := NewServer("", prometheus.NewRegistry())
	require.Nil(t, s)
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop(context.Background()))
}
