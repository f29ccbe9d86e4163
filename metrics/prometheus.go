package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PoolVault Metrics Collector
// Provides metrics for monitoring vault accounting and the withdrawal queue

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all PoolVault metrics
type Collector struct {
	// Accounting metrics
	RedemptionRate    prometheus.Gauge
	MaxHistoricalRate prometheus.Gauge
	TotalShares       prometheus.Gauge
	TotalAssets       prometheus.Gauge
	FeesOwed          prometheus.Gauge
	WithdrawFeeBps    prometheus.Gauge

	// Flow metrics
	DepositsTotal  *prometheus.CounterVec
	DepositVolume  *prometheus.CounterVec
	WithdrawsTotal *prometheus.CounterVec
	WithdrawVolume *prometheus.CounterVec

	// Fee metrics
	FeesAccrued     *prometheus.CounterVec
	FeesDistributed *prometheus.CounterVec

	// Queue metrics
	RequestsCreated   *prometheus.CounterVec
	RequestsFulfilled *prometheus.CounterVec
	QueueDepth        prometheus.Gauge
	SolverFeesPaid    prometheus.Counter

	// Update metrics
	RateUpdatesTotal prometheus.Counter
	UpdateLatency    *prometheus.HistogramVec

	// System metrics
	BlockHeight prometheus.Gauge
	PausedFlag  prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Accounting metrics
	c.RedemptionRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "accounting",
			Name:      "redemption_rate_bps",
			Help:      "Current redemption rate in basis points of asset per share",
		},
	)

	c.MaxHistoricalRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "accounting",
			Name:      "max_historical_rate_bps",
			Help:      "High-water-mark redemption rate in basis points",
		},
	)

	c.TotalShares = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "accounting",
			Name:      "total_shares",
			Help:      "Outstanding share supply",
		},
	)

	c.TotalAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "accounting",
			Name:      "total_assets",
			Help:      "Asset value of outstanding shares at the current rate",
		},
	)

	c.FeesOwed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "accounting",
			Name:      "fees_owed_assets",
			Help:      "Accrued undistributed fees in asset units",
		},
	)

	c.WithdrawFeeBps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "accounting",
			Name:      "withdraw_fee_bps",
			Help:      "Current position withdraw fee in basis points",
		},
	)

	// Flow metrics
	c.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "flows",
			Name:      "deposits_total",
			Help:      "Total number of deposit operations",
		},
		[]string{"kind"},
	)

	c.DepositVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "flows",
			Name:      "deposit_volume",
			Help:      "Cumulative deposited asset volume",
		},
		[]string{"kind"},
	)

	c.WithdrawsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "flows",
			Name:      "withdraws_total",
			Help:      "Total number of withdrawal settlements",
		},
		[]string{"path"},
	)

	c.WithdrawVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "flows",
			Name:      "withdraw_volume",
			Help:      "Cumulative withdrawn asset volume",
		},
		[]string{"path"},
	)

	// Fee metrics
	c.FeesAccrued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "fees",
			Name:      "accrued",
			Help:      "Cumulative fees accrued by kind, in asset units",
		},
		[]string{"kind"},
	)

	c.FeesDistributed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "fees",
			Name:      "distributed",
			Help:      "Cumulative fees distributed by recipient, in asset units",
		},
		[]string{"recipient"},
	)

	// Queue metrics
	c.RequestsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "queue",
			Name:      "requests_created",
			Help:      "Total withdrawal requests created",
		},
		[]string{"queue"},
	)

	c.RequestsFulfilled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "queue",
			Name:      "requests_fulfilled",
			Help:      "Total withdrawal requests fulfilled",
		},
		[]string{"path"},
	)

	c.QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Outstanding withdrawal requests",
		},
	)

	c.SolverFeesPaid = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "queue",
			Name:      "solver_fees_paid",
			Help:      "Cumulative solver completion fees paid, in asset units",
		},
	)

	// Update metrics
	c.RateUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "poolvault",
			Subsystem: "updates",
			Name:      "total",
			Help:      "Total rate update operations",
		},
	)

	c.UpdateLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "poolvault",
			Subsystem: "updates",
			Name:      "latency_ms",
			Help:      "Rate update processing latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"phase"},
	)

	// System metrics
	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	c.PausedFlag = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "poolvault",
			Subsystem: "system",
			Name:      "paused",
			Help:      "1 when the vault is paused, 0 otherwise",
		},
	)

	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	// Accounting metrics
	prometheus.MustRegister(c.RedemptionRate)
	prometheus.MustRegister(c.MaxHistoricalRate)
	prometheus.MustRegister(c.TotalShares)
	prometheus.MustRegister(c.TotalAssets)
	prometheus.MustRegister(c.FeesOwed)
	prometheus.MustRegister(c.WithdrawFeeBps)

	// Flow metrics
	prometheus.MustRegister(c.DepositsTotal)
	prometheus.MustRegister(c.DepositVolume)
	prometheus.MustRegister(c.WithdrawsTotal)
	prometheus.MustRegister(c.WithdrawVolume)

	// Fee metrics
	prometheus.MustRegister(c.FeesAccrued)
	prometheus.MustRegister(c.FeesDistributed)

	// Queue metrics
	prometheus.MustRegister(c.RequestsCreated)
	prometheus.MustRegister(c.RequestsFulfilled)
	prometheus.MustRegister(c.QueueDepth)
	prometheus.MustRegister(c.SolverFeesPaid)

	// Update metrics
	prometheus.MustRegister(c.RateUpdatesTotal)
	prometheus.MustRegister(c.UpdateLatency)

	// System metrics
	prometheus.MustRegister(c.BlockHeight)
	prometheus.MustRegister(c.PausedFlag)
}

// ============ Recording Helpers ============

// RecordDeposit records a deposit or mint operation
func (c *Collector) RecordDeposit(kind string, assets float64) {
	c.DepositsTotal.WithLabelValues(kind).Inc()
	c.DepositVolume.WithLabelValues(kind).Add(assets)
}

// RecordWithdrawRequest records a new withdrawal request
func (c *Collector) RecordWithdrawRequest(queue string) {
	c.RequestsCreated.WithLabelValues(queue).Inc()
}

// RecordWithdrawSettlement records a fulfilled request
func (c *Collector) RecordWithdrawSettlement(path string, assets, solverFee float64) {
	c.WithdrawsTotal.WithLabelValues(path).Inc()
	c.WithdrawVolume.WithLabelValues(path).Add(assets)
	c.RequestsFulfilled.WithLabelValues(path).Inc()
	if solverFee > 0 {
		c.SolverFeesPaid.Add(solverFee)
	}
}

// RecordFeeAccrual records fee accrual by kind
func (c *Collector) RecordFeeAccrual(kind string, assets float64) {
	c.FeesAccrued.WithLabelValues(kind).Add(assets)
}

// RecordFeeDistribution records a fee distribution
func (c *Collector) RecordFeeDistribution(strategistAssets, platformAssets float64) {
	c.FeesDistributed.WithLabelValues("strategist").Add(strategistAssets)
	c.FeesDistributed.WithLabelValues("platform").Add(platformAssets)
}

// RecordRateUpdate records a rate update with its latency
func (c *Collector) RecordRateUpdate(latencyMs float64) {
	c.RateUpdatesTotal.Inc()
	c.UpdateLatency.WithLabelValues("total").Observe(latencyMs)
}

// UpdateAccountingMetrics updates the accounting gauges
func (c *Collector) UpdateAccountingMetrics(rate, hwm, totalShares, totalAssets, feesOwed float64, withdrawFeeBps uint64) {
	c.RedemptionRate.Set(rate)
	c.MaxHistoricalRate.Set(hwm)
	c.TotalShares.Set(totalShares)
	c.TotalAssets.Set(totalAssets)
	c.FeesOwed.Set(feesOwed)
	c.WithdrawFeeBps.Set(float64(withdrawFeeBps))
}

// UpdateSystemMetrics updates system-level metrics
func (c *Collector) UpdateSystemMetrics(blockHeight int64, paused bool) {
	c.BlockHeight.Set(float64(blockHeight))
	if paused {
		c.PausedFlag.Set(1)
	} else {
		c.PausedFlag.Set(0)
	}
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
