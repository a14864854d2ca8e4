package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"monadAMM/internal/amm"
	"monadAMM/internal/bank"
	"monadAMM/internal/metrics"
)

var (
	tokenA   = amm.Token(common.HexToAddress("0x00000000000000000000000000000000000000a1"))
	provider = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	poolAddr = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

func newTestRouter(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()
	cfg := amm.Config{AssetA: tokenA, AssetB: amm.Native(), FeeBps: 30}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg, "test", cfg)

	b := bank.New(poolAddr)
	require.NoError(t, b.Credit(tokenA, provider, uint256.NewInt(100)))
	require.NoError(t, b.Credit(amm.Native(), provider, uint256.NewInt(400)))

	pool, err := amm.New(cfg, b, collector, nil)
	require.NoError(t, err)
	_, err = pool.AddLiquidity(context.Background(), provider, uint256.NewInt(100), uint256.NewInt(400), nil, nil)
	require.NoError(t, err)

	return NewHandler(pool, reg, nil).Router(), reg
}

func get(t *testing.T, h http.Handler, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestReserves(t *testing.T) {
	h, _ := newTestRouter(t)
	var resp ReservesResponse
	require.Equal(t, http.StatusOK, get(t, h, "/v1/reserves", &resp))
	require.Equal(t, "100", resp.ReserveA)
	require.Equal(t, "400", resp.ReserveB)
	require.Equal(t, "200", resp.TotalSupply)
	require.Equal(t, "native", resp.AssetB)
	require.Equal(t, uint16(30), resp.FeeBps)
}

func TestQuote(t *testing.T) {
	h, _ := newTestRouter(t)
	var resp QuoteResponse
	code := get(t, h, "/v1/quote?asset_in="+tokenA.String()+"&amount_in=10", &resp)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "34", resp.AmountOut)
	require.Equal(t, "1", resp.Fee)
	require.Equal(t, "110", resp.ReserveInAfter)
	require.Equal(t, "366", resp.ReserveOutAfter)

	// quoting leaves state alone
	var reserves ReservesResponse
	get(t, h, "/v1/reserves", &reserves)
	require.Equal(t, "100", reserves.ReserveA)
}

func TestQuoteErrors(t *testing.T) {
	h, _ := newTestRouter(t)
	cases := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"zero amount", "asset_in=native&amount_in=0", http.StatusBadRequest, "invalid_amount"},
		{"bad amount", "asset_in=native&amount_in=abc", http.StatusBadRequest, ""},
		{"bad asset", "asset_in=xyz&amount_in=1", http.StatusBadRequest, ""},
		{"unknown asset", "asset_in=0x00000000000000000000000000000000000000c3&amount_in=1", http.StatusBadRequest, "unknown_asset"},
		{"slippage", "asset_in=" + tokenA.String() + "&amount_in=10&min_amount_out=35", http.StatusConflict, "slippage_exceeded"},
		{"shrinks product", "asset_in=native&amount_in=3", http.StatusConflict, "invariant_violated"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var resp ErrorResponse
			require.Equal(t, tc.status, get(t, h, "/v1/quote?"+tc.query, &resp))
			require.NotEmpty(t, resp.Error)
			require.Equal(t, tc.code, resp.Code)
		})
	}
}

func TestSharesAndBadges(t *testing.T) {
	h, _ := newTestRouter(t)

	var shares SharesResponse
	require.Equal(t, http.StatusOK, get(t, h, "/v1/shares/"+provider.Hex(), &shares))
	require.Equal(t, "200", shares.Shares)

	var badge BadgeResponse
	require.Equal(t, http.StatusOK, get(t, h, "/v1/badges/"+provider.Hex(), &badge))
	require.Equal(t, uint64(1), badge.TokenID)
	require.Equal(t, amm.DefaultBadgeBaseURI+"1.json", badge.MetadataURI)

	stranger := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	require.Equal(t, http.StatusOK, get(t, h, "/v1/shares/"+stranger.Hex(), &shares))
	require.Equal(t, "0", shares.Shares)
	require.Equal(t, http.StatusNotFound, get(t, h, "/v1/badges/"+stranger.Hex(), nil))
	require.Equal(t, http.StatusBadRequest, get(t, h, "/v1/shares/nope", nil))
}

func TestMetricsRoute(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "amm_pool_badges_issued_total"))
}
