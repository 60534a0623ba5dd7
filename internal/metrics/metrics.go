package metrics

import (
	"net/http"
	"time"

	"ratebot/internal/rates"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BotMetrics holds the bot's Prometheus collectors.
type BotMetrics struct {
	registry *prometheus.Registry

	// feeds
	FeedRequestsTotal   *prometheus.CounterVec
	FeedRequestDuration *prometheus.HistogramVec

	// resolution
	RatesResolvedTotal *prometheus.CounterVec
	RateValue          *prometheus.GaugeVec
	RatesMissing       prometheus.Gauge

	// chat
	CommandsTotal    *prometheus.CounterVec
	AlertsFiredTotal prometheus.Counter
}

// NewBotMetrics registers the collectors on a fresh registry.
func NewBotMetrics() *BotMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &BotMetrics{
		registry: reg,

		FeedRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebot_feed_requests_total",
				Help: "Feed requests by feed and outcome",
			},
			[]string{"feed", "result"},
		),

		FeedRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratebot_feed_request_duration_seconds",
				Help:    "Feed request latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
			},
			[]string{"feed"},
		),

		RatesResolvedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebot_rates_resolved_total",
				Help: "Resolved rates by currency and source",
			},
			[]string{"currency", "source"},
		),

		RateValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratebot_rate_roubles",
				Help: "Last resolved rate in roubles per unit",
			},
			[]string{"currency"},
		),

		RatesMissing: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ratebot_rates_missing",
				Help: "Currencies unavailable in the last resolution",
			},
		),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebot_commands_total",
				Help: "Chat commands handled",
			},
			[]string{"command"},
		),

		AlertsFiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ratebot_alerts_fired_total",
				Help: "Threshold alerts fired",
			},
		),
	}
}

// ObserveFeed records one feed request.
func (m *BotMetrics) ObserveFeed(feed string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FeedRequestsTotal.WithLabelValues(feed, result).Inc()
	m.FeedRequestDuration.WithLabelValues(feed).Observe(d.Seconds())
}

// ObserveResolution records the outcome of one resolution.
func (m *BotMetrics) ObserveResolution(res rates.Resolution) {
	missing := 0
	for _, c := range rates.All {
		r, ok := res.Rates.Get(c)
		if !ok {
			missing++
			continue
		}
		m.RatesResolvedTotal.WithLabelValues(string(c), string(res.Sources[c])).Inc()
		m.RateValue.WithLabelValues(string(c)).Set(r.InexactFloat64())
	}
	m.RatesMissing.Set(float64(missing))
}

func (m *BotMetrics) RecordCommand(command string) {
	m.CommandsTotal.WithLabelValues(command).Inc()
}

func (m *BotMetrics) AlertsFired(n int) {
	m.AlertsFiredTotal.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *BotMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
