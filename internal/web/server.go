// Package web renders auction and bazaar records over HTTP.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/Sternrassler/skyblock-market/pkg/auction"
	"github.com/Sternrassler/skyblock-market/pkg/bazaar"
	"github.com/Sternrassler/skyblock-market/pkg/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// AuctionSource produces auction records for one request.
type AuctionSource interface {
	GetAuctionRecords(ctx context.Context) ([]auction.Record, error)
}

// BazaarSource produces bazaar records for one request.
type BazaarSource interface {
	GetBazaarRecords(ctx context.Context) ([]bazaar.Record, error)
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server holds the handlers and their collaborators.
type Server struct {
	auctions  AuctionSource
	bazaar    BazaarSource
	templates *template.Template
	logger    zerolog.Logger
}

// NewServer creates a server over the given sources.
func NewServer(auctions AuctionSource, bz BazaarSource) (*Server, error) {
	if auctions == nil {
		return nil, errors.New("auction source is nil")
	}
	if bz == nil {
		return nil, errors.New("bazaar source is nil")
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		auctions:  auctions,
		bazaar:    bz,
		templates: tmpl,
		logger:    logging.NewLogger("web"),
	}, nil
}

// Router builds a gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.SetHTMLTemplate(s.templates)

	// RegisterRoutes only fails on nil receivers.
	_ = s.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches the handlers to router.
func (s *Server) RegisterRoutes(router *gin.Engine) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.GET("/", s.index)
	router.GET("/auctions", s.auctionsPage)
	router.GET("/bazaar", s.bazaarPage)
	router.GET("/api/auctions", s.auctionsJSON)
	router.GET("/api/bazaar", s.bazaarJSON)
	router.GET("/health", health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return nil
}

func (s *Server) index(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "index.html", gin.H{})
}

func (s *Server) auctionsPage(ctx *gin.Context) {
	records, ok := s.loadAuctions(ctx)
	if !ok {
		return
	}
	ctx.HTML(http.StatusOK, "auctions.html", gin.H{"auction_data": records})
}

func (s *Server) auctionsJSON(ctx *gin.Context) {
	records, ok := s.loadAuctions(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, records)
}

func (s *Server) bazaarPage(ctx *gin.Context) {
	records, ok := s.loadBazaar(ctx)
	if !ok {
		return
	}
	ctx.HTML(http.StatusOK, "bazaar.html", gin.H{"bazaar_data": records})
}

func (s *Server) bazaarJSON(ctx *gin.Context) {
	records, ok := s.loadBazaar(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, records)
}

// loadAuctions writes the error response itself and reports false on failure.
func (s *Server) loadAuctions(ctx *gin.Context) ([]auction.Record, bool) {
	records, err := s.auctions.GetAuctionRecords(ctx.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load auctions")
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return nil, false
	}
	return records, true
}

func (s *Server) loadBazaar(ctx *gin.Context) ([]bazaar.Record, bool) {
	records, err := s.bazaar.GetBazaarRecords(ctx.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bazaar.ErrBazaarUnavailable) {
			status = http.StatusBadGateway
		}
		s.logger.Warn().Err(err).Int("status", status).Msg("Failed to load bazaar")
		ctx.JSON(status, ErrorResponse{Error: "Failed to fetch data from the API"})
		return nil, false
	}
	return records, true
}

func health(ctx *gin.Context) {
	ctx.String(http.StatusOK, "OK")
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		s.logger.Info().
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", ctx.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	}
}
