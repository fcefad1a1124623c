package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/skyblock-market/internal/config"
	"github.com/Sternrassler/skyblock-market/internal/web"
	"github.com/Sternrassler/skyblock-market/pkg/auction"
	"github.com/Sternrassler/skyblock-market/pkg/bazaar"
	"github.com/Sternrassler/skyblock-market/pkg/client"
	"github.com/Sternrassler/skyblock-market/pkg/logging"
	"github.com/Sternrassler/skyblock-market/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Pretty = cfg.LogPretty
	logging.Setup(logCfg)

	gin.SetMode(gin.ReleaseMode)

	router, closeFn, err := buildRouter(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build server")
	}
	defer closeFn()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr).
			Str("base_url", cfg.BaseURL).
			Str("time_left_mode", string(cfg.TimeLeftMode)).
			Msg("Starting market server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// buildRouter wires the upstream client, the services and the web layer.
// The returned func releases the client's pooled connections.
func buildRouter(cfg config.Config) (*gin.Engine, func(), error) {
	clientCfg := client.DefaultConfig()
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.UserAgent = cfg.UserAgent
	clientCfg.RequestTimeout = cfg.RequestTimeout

	upstream, err := client.New(clientCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create client: %w", err)
	}
	closeFn := func() { upstream.Close() }

	source, err := auction.NewSource(upstream)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("create auction source: %w", err)
	}

	projector, err := auction.NewProjector(cfg.TimeLeftMode, nil)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("create projector: %w", err)
	}

	auctions, err := auction.NewService(source, source, pagination.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		PageTimeout:    cfg.PageTimeout,
		Timeout:        cfg.AggregateTimeout,
	}, projector)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("create auction service: %w", err)
	}

	bz, err := bazaar.NewService(upstream)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("create bazaar service: %w", err)
	}

	server, err := web.NewServer(auctions, bz)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("create web server: %w", err)
	}

	return server.Router(), closeFn, nil
}
