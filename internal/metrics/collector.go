package metrics

import (
	"context"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"monadAMM/internal/amm"
)

// Collector turns committed pool events into Prometheus metrics. It is an
// amm.EventSink and never fails a publish.
type Collector struct {
	pool   string
	assetA string
	assetB string

	SwapsTotal       *prometheus.CounterVec
	SwapVolume       *prometheus.CounterVec
	SwapFees         *prometheus.CounterVec
	LiquidityEvents  *prometheus.CounterVec
	BadgesIssued     prometheus.Counter
	Reserves         *prometheus.GaugeVec
	LPSupply         prometheus.Gauge
	FailedOperations *prometheus.CounterVec
}

// NewCollector registers the pool metrics on reg.
func NewCollector(reg prometheus.Registerer, pool string, cfg amm.Config) *Collector {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"pool": pool}
	return &Collector{
		pool:   pool,
		assetA: cfg.AssetA.String(),
		assetB: cfg.AssetB.String(),

		SwapsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "amm",
			Subsystem:   "pool",
			Name:        "swaps_total",
			Help:        "Committed swaps by input asset.",
			ConstLabels: labels,
		}, []string{"asset_in"}),
		SwapVolume: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "amm",
			Subsystem:   "pool",
			Name:        "swap_volume_total",
			Help:        "Swap input volume in base units.",
			ConstLabels: labels,
		}, []string{"asset"}),
		SwapFees: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "amm",
			Subsystem:   "pool",
			Name:        "swap_fees_total",
			Help:        "Fees retained by the pool in base units.",
			ConstLabels: labels,
		}, []string{"asset"}),
		LiquidityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "amm",
			Subsystem:   "pool",
			Name:        "liquidity_events_total",
			Help:        "Liquidity deposits and withdrawals.",
			ConstLabels: labels,
		}, []string{"kind"}),
		BadgesIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "amm",
			Subsystem:   "pool",
			Name:        "badges_issued_total",
			Help:        "Provider badges minted.",
			ConstLabels: labels,
		}),
		Reserves: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "amm",
			Subsystem:   "pool",
			Name:        "reserve",
			Help:        "Current reserve per asset in base units.",
			ConstLabels: labels,
		}, []string{"asset"}),
		LPSupply: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "amm",
			Subsystem:   "pool",
			Name:        "lp_supply",
			Help:        "Outstanding LP shares.",
			ConstLabels: labels,
		}),
		FailedOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "amm",
			Subsystem:   "pool",
			Name:        "failed_operations_total",
			Help:        "Rejected operations by kind and error code.",
			ConstLabels: labels,
		}, []string{"op", "code"}),
	}
}

// Publish implements amm.EventSink.
func (c *Collector) Publish(_ context.Context, events []amm.Event) error {
	for _, ev := range events {
		switch v := ev.(type) {
		case amm.SwapEvent:
			in := v.AssetIn.String()
			c.SwapsTotal.WithLabelValues(in).Inc()
			c.SwapVolume.WithLabelValues(in).Add(toFloat(v.AmountIn))
			c.SwapFees.WithLabelValues(in).Add(toFloat(v.Fee))
			c.setReserves(v.ReserveA, v.ReserveB)
		case amm.LiquidityAddedEvent:
			c.LiquidityEvents.WithLabelValues("added").Inc()
			c.setReserves(v.ReserveA, v.ReserveB)
			c.LPSupply.Set(toFloat(v.TotalSupply))
		case amm.LiquidityRemovedEvent:
			c.LiquidityEvents.WithLabelValues("removed").Inc()
			c.setReserves(v.ReserveA, v.ReserveB)
			c.LPSupply.Set(toFloat(v.TotalSupply))
		case amm.BadgeIssuedEvent:
			c.BadgesIssued.Inc()
		}
	}
	return nil
}

// ObserveFailure counts a rejected operation by its error code.
func (c *Collector) ObserveFailure(op, code string) {
	c.FailedOperations.WithLabelValues(op, code).Inc()
}

// Sync sets the gauges from pool state, for use after a restore.
func (c *Collector) Sync(st amm.State) {
	c.setReserves(st.ReserveA, st.ReserveB)
	c.LPSupply.Set(toFloat(st.TotalSupply))
}

func (c *Collector) setReserves(a, b *uint256.Int) {
	c.Reserves.WithLabelValues(c.assetA).Set(toFloat(a))
	c.Reserves.WithLabelValues(c.assetB).Set(toFloat(b))
}

func toFloat(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	if v.IsUint64() {
		return float64(v.Uint64())
	}
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}
