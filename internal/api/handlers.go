package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"monadAMM/internal/amm"
	"monadAMM/internal/metrics"
)

// Pool is the read-only view of a pool served by the API.
type Pool interface {
	Config() amm.Config
	Reserves() (*uint256.Int, *uint256.Int)
	TotalSupply() *uint256.Int
	ShareOf(owner common.Address) *uint256.Int
	BadgeOf(owner common.Address) (amm.Badge, bool)
	Quote(assetIn amm.Asset, amountIn, minAmountOut *uint256.Int) (amm.SwapQuote, error)
}

// Handler serves pool queries over HTTP.
type Handler struct {
	pool     Pool
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewHandler creates a handler; gatherer may be nil to omit /metrics.
func NewHandler(pool Pool, gatherer prometheus.Gatherer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pool: pool, gatherer: gatherer, logger: logger}
}

// RegisterRoutes registers the query routes on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/reserves", h.handleReserves).Methods(http.MethodGet)
	r.HandleFunc("/v1/quote", h.handleQuote).Methods(http.MethodGet)
	r.HandleFunc("/v1/shares/{owner}", h.handleShares).Methods(http.MethodGet)
	r.HandleFunc("/v1/badges/{owner}", h.handleBadge).Methods(http.MethodGet)
	if h.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(h.gatherer)).Methods(http.MethodGet)
	}
}

// Router returns a new router with every route registered.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

type ReservesResponse struct {
	AssetA      string `json:"asset_a"`
	AssetB      string `json:"asset_b"`
	ReserveA    string `json:"reserve_a"`
	ReserveB    string `json:"reserve_b"`
	TotalSupply string `json:"total_supply"`
	FeeBps      uint16 `json:"fee_bps"`
}

type QuoteResponse struct {
	AssetIn          string `json:"asset_in"`
	AssetOut         string `json:"asset_out"`
	AmountIn         string `json:"amount_in"`
	Fee              string `json:"fee"`
	AmountOut        string `json:"amount_out"`
	ReserveInBefore  string `json:"reserve_in_before"`
	ReserveOutBefore string `json:"reserve_out_before"`
	ReserveInAfter   string `json:"reserve_in_after"`
	ReserveOutAfter  string `json:"reserve_out_after"`
}

type SharesResponse struct {
	Owner       string `json:"owner"`
	Shares      string `json:"shares"`
	TotalSupply string `json:"total_supply"`
}

type BadgeResponse struct {
	Owner       string `json:"owner"`
	TokenID     uint64 `json:"token_id"`
	MetadataURI string `json:"metadata_uri"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *Handler) handleReserves(w http.ResponseWriter, _ *http.Request) {
	cfg := h.pool.Config()
	a, b := h.pool.Reserves()
	h.writeJSON(w, http.StatusOK, ReservesResponse{
		AssetA:      cfg.AssetA.String(),
		AssetB:      cfg.AssetB.String(),
		ReserveA:    amm.Dec(a),
		ReserveB:    amm.Dec(b),
		TotalSupply: amm.Dec(h.pool.TotalSupply()),
		FeeBps:      cfg.FeeBps,
	})
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	assetIn, err := amm.ParseAsset(query.Get("asset_in"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	amountIn, err := amm.ParseAmount(query.Get("amount_in"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "amount_in: "+err.Error(), "")
		return
	}
	var minOut *uint256.Int
	if raw := query.Get("min_amount_out"); raw != "" {
		if minOut, err = amm.ParseAmount(raw); err != nil {
			h.writeError(w, http.StatusBadRequest, "min_amount_out: "+err.Error(), "")
			return
		}
	}

	q, err := h.pool.Quote(assetIn, amountIn, minOut)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error(), amm.ErrorCode(err))
		return
	}
	h.writeJSON(w, http.StatusOK, QuoteResponse{
		AssetIn:          q.AssetIn.String(),
		AssetOut:         q.AssetOut.String(),
		AmountIn:         amm.Dec(q.AmountIn),
		Fee:              amm.Dec(q.Fee),
		AmountOut:        amm.Dec(q.AmountOut),
		ReserveInBefore:  amm.Dec(q.ReserveInBefore),
		ReserveOutBefore: amm.Dec(q.ReserveOutBefore),
		ReserveInAfter:   amm.Dec(q.ReserveInAfter),
		ReserveOutAfter:  amm.Dec(q.ReserveOutAfter),
	})
}

func (h *Handler) handleShares(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, SharesResponse{
		Owner:       owner.Hex(),
		Shares:      amm.Dec(h.pool.ShareOf(owner)),
		TotalSupply: amm.Dec(h.pool.TotalSupply()),
	})
}

func (h *Handler) handleBadge(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	badge, found := h.pool.BadgeOf(owner)
	if !found {
		h.writeError(w, http.StatusNotFound, "no badge for "+owner.Hex(), "")
		return
	}
	h.writeJSON(w, http.StatusOK, BadgeResponse{
		Owner:       badge.Owner.Hex(),
		TokenID:     badge.TokenID,
		MetadataURI: badge.MetadataURI,
	})
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := mux.Vars(r)["owner"]
	if !common.IsHexAddress(raw) {
		h.writeError(w, http.StatusBadRequest, "invalid owner address", "")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// statusFor maps pool errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, amm.ErrUnknownAsset), errors.Is(err, amm.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, amm.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, amm.ErrInsufficientReserve),
		errors.Is(err, amm.ErrInsufficientLiquidity),
		errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, amm.ErrInvariantViolated):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("write response failed", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
