package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/skyblock-market/pkg/logging"
	"github.com/Sternrassler/skyblock-market/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrUpstreamUnavailable is returned when the page count cannot be determined
// because the upstream could not be reached at all.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Prometheus metrics for page aggregation.
var (
	pagesTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "skyblock_pages_total",
		Help: "Total page fetches by outcome (ok, absent)",
	}, []string{"outcome"})

	aggregateDuration = promauto.With(metrics.Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "skyblock_aggregate_duration_seconds",
		Help:    "Duration of a full fan-out over all pages",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	})
)

// Config holds aggregator configuration.
type Config struct {
	// MaxConcurrency caps in-flight page fetches. Zero launches every page at once.
	MaxConcurrency int
	// PageTimeout bounds each page fetch. Zero means no timeout.
	PageTimeout time.Duration
	// Timeout bounds the whole fan-out. Zero means no timeout.
	Timeout time.Duration
}

// DefaultConfig returns the reference behaviour: unbounded fan-out, no timeouts.
func DefaultConfig() Config {
	return Config{}
}

// Discoverer reports how many pages the collection currently has.
type Discoverer interface {
	// Discover returns the page count. It returns an error wrapping
	// ErrUpstreamUnavailable only when the count cannot be determined at all.
	Discover(ctx context.Context) (int, error)
}

// PageFetcher retrieves a single page by 0-based index.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (T, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, page int) (T, error)

// FetchPage calls f(ctx, page).
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, page int) (T, error) {
	return f(ctx, page)
}

// PageResult is the outcome of fetching one page. When OK is false the page is
// absent: Value is the zero value and Err records why.
type PageResult[T any] struct {
	Page  int
	Value T
	OK    bool
	Err   error
}

// Aggregator fetches every page of a collection concurrently.
type Aggregator[T any] struct {
	fetcher PageFetcher[T]
	config  Config
	logger  zerolog.Logger
}

// NewAggregator creates a new aggregator.
func NewAggregator[T any](fetcher PageFetcher[T], config Config) *Aggregator[T] {
	if fetcher == nil {
		panic("page fetcher cannot be nil")
	}
	if config.MaxConcurrency < 0 {
		config.MaxConcurrency = 0
	}
	if config.PageTimeout < 0 {
		config.PageTimeout = 0
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}

	return &Aggregator[T]{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("aggregator"),
	}
}

// FetchAllPages discovers the page count and then aggregates every page.
// Only a discovery failure is returned as an error; page failures show up as
// absent results.
func (a *Aggregator[T]) FetchAllPages(ctx context.Context, discoverer Discoverer) ([]PageResult[T], error) {
	totalPages, err := discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}
	return a.Aggregate(ctx, totalPages), nil
}

// Aggregate fetches pages 0..totalPages-1 concurrently and returns once every
// fetch has finished. Position i of the result holds page i.
func (a *Aggregator[T]) Aggregate(ctx context.Context, totalPages int) []PageResult[T] {
	if totalPages <= 0 {
		return []PageResult[T]{}
	}

	start := time.Now()

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	a.logger.Info().
		Int("total_pages", totalPages).
		Int("max_concurrency", a.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	// Each task owns exactly one slot; no locking needed.
	results := make([]PageResult[T], totalPages)

	var g errgroup.Group
	if a.config.MaxConcurrency > 0 {
		g.SetLimit(a.config.MaxConcurrency)
	}

	for page := 0; page < totalPages; page++ {
		g.Go(func() error {
			results[page] = a.fetchOne(ctx, page)
			return nil
		})
	}
	_ = g.Wait()

	fetched := 0
	for _, r := range results {
		if r.OK {
			fetched++
		}
	}
	aggregateDuration.Observe(time.Since(start).Seconds())

	a.logger.Info().
		Int("pages", fetched).
		Int("absent", totalPages-fetched).
		Int("total", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results
}

// fetchOne runs a single fetch and converts every failure, including a panic
// in the fetcher, into an absent result.
func (a *Aggregator[T]) fetchOne(ctx context.Context, page int) (result PageResult[T]) {
	result.Page = page

	defer func() {
		if r := recover(); r != nil {
			var zero T
			result.Value = zero
			result.OK = false
			result.Err = fmt.Errorf("page %d: panic: %v", page, r)
		}
		if result.OK {
			pagesTotal.WithLabelValues("ok").Inc()
			return
		}
		pagesTotal.WithLabelValues("absent").Inc()
		a.logger.Warn().
			Err(result.Err).
			Int("page", page).
			Msg("Page fetch failed")
	}()

	if a.config.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.PageTimeout)
		defer cancel()
	}

	value, err := a.fetcher.FetchPage(ctx, page)
	if err != nil {
		result.Err = err
		return result
	}

	result.Value = value
	result.OK = true
	return result
}

// Present returns the values of the non-absent results, in page order.
func Present[T any](results []PageResult[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.OK {
			out = append(out, r.Value)
		}
	}
	return out
}
