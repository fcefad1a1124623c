package ratelimit

import (
	"net/http"

	"github.com/Sternrassler/skyblock-market/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for upstream quota.
var (
	quotaRemaining = promauto.With(metrics.Registry).NewGauge(prometheus.GaugeOpts{
		Name: "skyblock_rate_limit_remaining",
		Help: "Requests remaining in the current upstream rate-limit window",
	})

	quotaLimit = promauto.With(metrics.Registry).NewGauge(prometheus.GaugeOpts{
		Name: "skyblock_rate_limit_limit",
		Help: "Requests allowed per upstream rate-limit window",
	})

	quotaLowTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "skyblock_rate_limit_low_total",
		Help: "Total responses reporting a low remaining quota",
	})
)

// Tracker publishes the quota carried by upstream responses. It keeps no
// state of its own and is safe for concurrent use.
type Tracker struct {
	logger zerolog.Logger
}

// NewTracker creates a new tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Observe records the quota from a response's headers, if present.
func (t *Tracker) Observe(headers http.Header) {
	state, ok, err := ParseHeaders(headers)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Failed to parse rate limit headers")
		return
	}
	if !ok {
		return
	}

	quotaRemaining.Set(float64(state.Remaining))
	if state.Limit > 0 {
		quotaLimit.Set(float64(state.Limit))
	}

	if state.IsLow() {
		quotaLowTotal.Inc()
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Dur("reset_in", state.ResetIn).
			Msg("Upstream rate limit nearly exhausted")
		return
	}

	t.logger.Debug().
		Int("remaining", state.Remaining).
		Dur("reset_in", state.ResetIn).
		Msg("Upstream rate limit state")
}
