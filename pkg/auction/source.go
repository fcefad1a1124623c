package auction

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/skyblock-market/pkg/client"
	"github.com/Sternrassler/skyblock-market/pkg/logging"
	"github.com/Sternrassler/skyblock-market/pkg/pagination"
	"github.com/rs/zerolog"
)

// auctionsPath is the paginated collection endpoint, relative to the base URL.
const auctionsPath = "/auctions"

// Source discovers and fetches auction pages over the shared client.
// It implements pagination.Discoverer and pagination.PageFetcher[Page].
type Source struct {
	client *client.Client
	logger zerolog.Logger
}

// NewSource creates a new auction source.
func NewSource(c *client.Client) (*Source, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	return &Source{
		client: c,
		logger: logging.NewLogger("auction-source"),
	}, nil
}

// Discover issues one request to the collection endpoint and returns its
// totalPages field. A non-success status or an unreadable body yields 0 so
// the caller renders an empty result; only an unreachable upstream is an error.
func (s *Source) Discover(ctx context.Context) (int, error) {
	var meta struct {
		TotalPages int `json:"totalPages"`
	}

	err := s.client.GetJSON(ctx, auctionsPath, nil, &meta)
	if err != nil {
		if client.IsTransport(err) {
			s.logger.Error().Err(err).Msg("Failed to reach upstream for page count")
			return 0, fmt.Errorf("%w: %v", pagination.ErrUpstreamUnavailable, err)
		}
		s.logger.Warn().Err(err).Msg("Failed to fetch total pages, continuing with none")
		return 0, nil
	}

	if meta.TotalPages < 0 {
		meta.TotalPages = 0
	}

	s.logger.Debug().Int("total_pages", meta.TotalPages).Msg("Discovered page count")
	return meta.TotalPages, nil
}

// FetchPage fetches one page of auctions. Any failure is returned as an error,
// which the aggregator turns into an absent page.
func (s *Source) FetchPage(ctx context.Context, page int) (Page, error) {
	query := url.Values{"page": {strconv.Itoa(page)}}

	var p Page
	if err := s.client.GetJSON(ctx, auctionsPath, query, &p); err != nil {
		return Page{}, fmt.Errorf("fetch page %d: %w", page, err)
	}
	return p, nil
}
