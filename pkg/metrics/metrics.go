// Package metrics provides the Prometheus registry for the market client and
// the collectors shared by more than one package.
// Package-specific metrics are defined next to the code that records them
// (client, pagination, ratelimit) to keep packages independent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is where every collector of the market client registers, via
// promauto.With(Registry). /metrics serves the default gatherer, so it stays
// the default registerer.
var Registry = prometheus.DefaultRegisterer

// RecordsProjected counts display records produced, by kind ("auction", "bazaar").
var RecordsProjected = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
	Name: "skyblock_records_projected_total",
	Help: "Total display records produced by kind",
}, []string{"kind"})

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - skyblock_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and HTTP status
//   - skyblock_request_duration_seconds{endpoint} (Histogram): Upstream request duration
//   - skyblock_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - skyblock_pages_total{outcome} (Counter): Page fetches by outcome (ok, absent)
//   - skyblock_aggregate_duration_seconds (Histogram): Full fan-out duration
//
// Quota Metrics (pkg/ratelimit):
//   - skyblock_rate_limit_remaining (Gauge): Requests left in the upstream window
//   - skyblock_rate_limit_limit (Gauge): Requests allowed per upstream window
//   - skyblock_rate_limit_low_total (Counter): Responses reporting a low quota
//
// Projection Metrics (this package):
//   - skyblock_records_projected_total{kind} (Counter): Display records produced
//
// Example Prometheus Queries:
//
//   # Absent page ratio
//   rate(skyblock_pages_total{outcome="absent"}[5m]) / rate(skyblock_pages_total[5m])
//
//   # P95 fan-out latency
//   histogram_quantile(0.95, rate(skyblock_aggregate_duration_seconds_bucket[5m]))
