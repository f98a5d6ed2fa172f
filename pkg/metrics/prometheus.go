package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry        *prometheus.Registry
	updatesApplied  prometheus.Counter
	updatesFailed   prometheus.Counter
	gapDaysFilled   prometheus.Counter
	requestDuration prometheus.Histogram
	timelineLength  *prometheus.GaugeVec
	mu              sync.RWMutex
	logger          *slog.Logger
}

func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &Collector{
		registry: registry,
		updatesApplied: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "balance_updates_applied_total",
			Help: "Total number of balance corrections applied and persisted",
		}),
		updatesFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "balance_updates_failed_total",
			Help: "Total number of balance corrections that failed",
		}),
		gapDaysFilled: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "timeline_gap_days_filled_total",
			Help: "Total number of calendar days synthesized by gap filling",
		}),
		requestDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "balance_update_request_duration_seconds",
			Help:    "Time taken to process an update-balance request",
			Buckets: prometheus.DefBuckets,
		}),
		timelineLength: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "timeline_length_days",
			Help: "Length in days of the last persisted timeline per card",
		}, []string{"card_number"}),
		logger: logger,
	}

	return collector
}

func (c *Collector) RecordUpdateApplied(gapDays int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.updatesApplied.Inc()
	c.gapDaysFilled.Add(float64(gapDays))
}

func (c *Collector) RecordUpdateFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updatesFailed.Inc()
}

func (c *Collector) SetTimelineLength(cardNumber string, length int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timelineLength.WithLabelValues(cardNumber).Set(float64(length))
}

func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestDuration.Observe(duration.Seconds())
}

func (c *Collector) GetHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		c.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (c *Collector) Shutdown(ctx context.Context) error {
	c.logger.Info("Metrics collector shutdown complete")
	return nil
}
