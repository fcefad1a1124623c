// Package client provides the shared HTTP session used for every call to the
// SkyBlock market API, with error classification and request metrics.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/skyblock-market/pkg/logging"
	"github.com/Sternrassler/skyblock-market/pkg/metrics"
	"github.com/Sternrassler/skyblock-market/pkg/ratelimit"
)

// Prometheus metrics for upstream operations.
var (
	requestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "skyblock_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skyblock_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "skyblock_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public SkyBlock API root.
const DefaultBaseURL = "https://api.hypixel.net/skyblock"

// Client is the shared upstream session. It is safe for concurrent use and
// is never mutated after New returns.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
	quota      *ratelimit.Tracker
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.hypixel.net/skyblock".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// RequestTimeout bounds a single call. Zero means no timeout.
	RequestTimeout time.Duration

	// MaxIdleConnsPerHost sizes the connection pool reused across pages.
	MaxIdleConnsPerHost int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		UserAgent:           "skyblock-market/0.1.0",
		RequestTimeout:      0,
		MaxIdleConnsPerHost: 64,
	}
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.RequestTimeout < 0 {
		return nil, fmt.Errorf("request_timeout must be >= 0 (got %s)", cfg.RequestTimeout)
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 64
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost

	logger := logging.NewLogger("skyblock-client")

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		config:  cfg,
		logger:  logger,
		quota:   ratelimit.NewTracker(logger),
	}, nil
}

// Get performs a GET request against path relative to the base URL.
// A non-nil error means the upstream could not be reached (network class);
// any HTTP status is returned to the caller as-is.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	endpoint := req.URL.Path
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("query", req.URL.RawQuery).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &UpstreamError{
			Endpoint:   endpoint,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	c.quota.Observe(resp.Header)
	if !isSuccess(resp) {
		errorsTotal.WithLabelValues(string(classifyStatus(resp.StatusCode))).Inc()
	}

	return resp, nil
}

// GetJSON performs a GET request and decodes a 2xx body into v.
// Non-2xx statuses and undecodable bodies are reported as *UpstreamError.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	endpoint := resp.Request.URL.Path

	if !isSuccess(resp) {
		// Drain so the connection can be reused by sibling fetches.
		_, _ = io.Copy(io.Discard, resp.Body)
		class := classifyStatus(resp.StatusCode)
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Upstream returned non-success status")
		return &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		// A body cut off mid-stream by a timeout is still a transport failure.
		if isReadTimeout(ctx, err) {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &UpstreamError{
				Endpoint:   endpoint,
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassNetwork,
				Message:    "read body",
				Err:        err,
			}
		}
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode body",
			Err:        err,
		}
	}

	return nil
}

// Close releases idle pooled connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
