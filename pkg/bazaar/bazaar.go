// Package bazaar fetches the bazaar product snapshot and projects it into
// display records.
package bazaar

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Sternrassler/skyblock-market/pkg/client"
	"github.com/Sternrassler/skyblock-market/pkg/format"
	"github.com/Sternrassler/skyblock-market/pkg/logging"
	"github.com/Sternrassler/skyblock-market/pkg/metrics"
	"github.com/rs/zerolog"
)

// ErrBazaarUnavailable is returned when the bazaar snapshot could not be fetched.
var ErrBazaarUnavailable = errors.New("bazaar unavailable")

const bazaarPath = "/bazaar"

// QuickStatus is the summary block of a bazaar product.
type QuickStatus struct {
	ProductID      string  `json:"productId"`
	SellPrice      float64 `json:"sellPrice"`
	SellVolume     float64 `json:"sellVolume"`
	SellMovingWeek float64 `json:"sellMovingWeek"`
	SellOrders     float64 `json:"sellOrders"`
	BuyPrice       float64 `json:"buyPrice"`
	BuyVolume      float64 `json:"buyVolume"`
	BuyMovingWeek  float64 `json:"buyMovingWeek"`
	BuyOrders      float64 `json:"buyOrders"`
}

// Product is one bazaar product.
type Product struct {
	ProductID   string      `json:"product_id"`
	QuickStatus QuickStatus `json:"quick_status"`
}

// Response is the parsed body of GET /bazaar.
type Response struct {
	Success     bool               `json:"success"`
	LastUpdated int64              `json:"lastUpdated"`
	Products    map[string]Product `json:"products"`
}

// Record is a display-ready bazaar product.
type Record struct {
	Name     string `json:"name"`
	MinPrice string `json:"min_price"`
	MaxPrice string `json:"max_price"`
	AvgPrice string `json:"avg_price"`
	Quantity string `json:"quantity"`
}

// Service fetches and projects the bazaar snapshot.
type Service struct {
	client *client.Client
	logger zerolog.Logger
}

// NewService creates a new bazaar service.
func NewService(c *client.Client) (*Service, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	return &Service{
		client: c,
		logger: logging.NewLogger("bazaar"),
	}, nil
}

// Fetch retrieves the raw bazaar snapshot.
func (s *Service) Fetch(ctx context.Context) (Response, error) {
	var resp Response
	if err := s.client.GetJSON(ctx, bazaarPath, nil, &resp); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to fetch bazaar")
		return Response{}, fmt.Errorf("%w: %v", ErrBazaarUnavailable, err)
	}
	if resp.Products == nil {
		s.logger.Warn().Msg("Bazaar response has no products")
		return Response{}, fmt.Errorf("%w: response has no products", ErrBazaarUnavailable)
	}
	return resp, nil
}

// GetBazaarRecords fetches the snapshot and projects it.
func (s *Service) GetBazaarRecords(ctx context.Context) ([]Record, error) {
	resp, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Project(resp), nil
}

// Project returns one record per product, sorted by product name.
// Prices are rounded half to even before grouping.
func Project(resp Response) []Record {
	names := make([]string, 0, len(resp.Products))
	for name := range resp.Products {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]Record, 0, len(names))
	for _, name := range names {
		qs := resp.Products[name].QuickStatus
		records = append(records, Record{
			Name:     name,
			MinPrice: format.Number(round(qs.SellPrice)),
			MaxPrice: format.Number(round(qs.BuyPrice)),
			AvgPrice: format.Number(round((qs.SellPrice + qs.BuyPrice) / 2)),
			Quantity: format.Number(round(qs.BuyMovingWeek)),
		})
	}

	metrics.RecordsProjected.WithLabelValues("bazaar").Add(float64(len(records)))
	return records
}

func round(v float64) int64 {
	return int64(math.RoundToEven(v))
}
