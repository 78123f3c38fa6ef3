package metrics

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"modengine/internal/store"
)

// Scan outcomes.
const (
	OutcomeClean   = "clean"
	OutcomeFlagged = "flagged"
)

var (
	flagsDesc = prometheus.NewDesc(
		"modengine_content_flags",
		"Current number of content flags by status and content type",
		[]string{"status", "content_type"},
		nil,
	)

	scansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modengine_scans_total",
		Help: "Content submissions scanned, by content type and outcome",
	}, []string{"content_type", "outcome"})

	reviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modengine_flag_reviews_total",
		Help: "Flag reviews by decision",
	}, []string{"decision"})

	highRiskAlertsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "modengine_high_risk_alerts_total",
		Help: "Companies that newly reached the high risk level",
	})
)

// FlagCollector is a custom Prometheus collector that reads flag counts from
// the store on each scrape.
type FlagCollector struct {
	flags  store.FlagStore
	logger *zap.Logger
}

// NewFlagCollector creates a FlagCollector.
func NewFlagCollector(flags store.FlagStore, logger *zap.Logger) *FlagCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlagCollector{flags: flags, logger: logger}
}

// Describe sends the metric descriptor to the channel.
func (c *FlagCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- flagsDesc
}

// Collect queries the store for grouped flag counts and emits them as gauges.
func (c *FlagCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.flags.CountFlags(context.Background())
	if err != nil {
		c.logger.Error("failed to collect flag metrics", zap.Error(err))
		return
	}
	for _, fc := range counts {
		ch <- prometheus.MustNewConstMetric(
			flagsDesc,
			prometheus.GaugeValue,
			float64(fc.Count),
			string(fc.Status),
			string(fc.ContentType),
		)
	}
}

var (
	initialized atomic.Bool
	initOnce    sync.Once
)

// Init registers the collector and counters with the default registry.
// Must be called once at startup; recording before Init is a no-op.
func Init(flags store.FlagStore, logger *zap.Logger) {
	initOnce.Do(func() {
		prometheus.MustRegister(
			NewFlagCollector(flags, logger),
			scansTotal,
			reviewsTotal,
			highRiskAlertsTotal,
		)
		initialized.Store(true)
	})
}

// RecordScan counts one scanned submission.
func RecordScan(contentType, outcome string) {
	if !initialized.Load() {
		return
	}
	scansTotal.WithLabelValues(contentType, outcome).Inc()
}

// RecordReview counts one successful flag review.
func RecordReview(decision string) {
	if !initialized.Load() {
		return
	}
	reviewsTotal.WithLabelValues(decision).Inc()
}

// RecordHighRiskAlerts counts companies that newly became high risk.
func RecordHighRiskAlerts(n int) {
	if !initialized.Load() || n <= 0 {
		return
	}
	highRiskAlertsTotal.Add(float64(n))
}
