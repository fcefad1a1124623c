package auction

import (
	"context"
	"fmt"

	"github.com/Sternrassler/skyblock-market/pkg/pagination"
)

// Service is the entry point the presentation layer calls per request.
// Nothing is retained between calls.
type Service struct {
	discoverer pagination.Discoverer
	aggregator *pagination.Aggregator[Page]
	projector  *Projector
}

// NewService wires a discoverer, a page fetcher and a projector together.
func NewService(discoverer pagination.Discoverer, fetcher pagination.PageFetcher[Page], cfg pagination.Config, projector *Projector) (*Service, error) {
	if discoverer == nil {
		return nil, fmt.Errorf("discoverer is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	if projector == nil {
		return nil, fmt.Errorf("projector is required")
	}
	return &Service{
		discoverer: discoverer,
		aggregator: pagination.NewAggregator[Page](fetcher, cfg),
		projector:  projector,
	}, nil
}

// GetAuctionRecords fetches every auction page and projects the result.
// Failed pages are skipped; the error is non-nil only when the page count
// could not be determined (wrapping pagination.ErrUpstreamUnavailable).
func (s *Service) GetAuctionRecords(ctx context.Context) ([]Record, error) {
	pages, err := s.aggregator.FetchAllPages(ctx, s.discoverer)
	if err != nil {
		return nil, err
	}
	return s.projector.Project(pages), nil
}
