package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koenighotze/search-assistant/config"
	"github.com/koenighotze/search-assistant/internal/api"
	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/koenighotze/search-assistant/internal/model"
	"github.com/koenighotze/search-assistant/internal/query"
	"github.com/koenighotze/search-assistant/internal/search"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownGrace     = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML or JSON configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Log.Error("Search assistant stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log.Info("Loading model",
		"provider", cfg.Model.Provider,
		"model", cfg.Model.Name)
	backend, err := model.New(ctx, cfg.Model)
	if err != nil {
		return err
	}

	var opts []query.Option
	if cfg.Guardrail.Model != "" {
		guardLLM, err := model.NewGuardrailLLM(cfg.Guardrail)
		if err != nil {
			return err
		}
		opts = append(opts, query.WithGuardrail(query.NewGuardrail(guardLLM)))
		logger.Log.Info("Guardrail enabled", "model", cfg.Guardrail.Model)
	}

	var (
		searcher  search.Searcher
		scheduler *search.Scheduler
	)
	if cfg.Search.Enabled {
		cache := search.NewCache(search.NewChain(cfg.Search), cfg.Search.CacheTTL.Std())
		scheduler = search.NewScheduler(cache)
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("start search cache cleanup: %w", err)
		}
		searcher = cache
	}

	server := &http.Server{
		Addr: cfg.ServerAddr,
		Handler: api.NewHandler(api.Dependencies{
			Answerer:       query.NewService(backend, opts...),
			Searcher:       searcher,
			Readiness:      backend,
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout.Std(),
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("Starting server", "addr", cfg.ServerAddr)
		return listen(server)
	})

	if metricsServer != nil {
		g.Go(func() error {
			logger.Log.Info("Starting metrics server", "addr", cfg.MetricsAddr)
			return listen(metricsServer)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down")
		backend.Drain()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if metricsServer != nil {
			err = errors.Join(err, metricsServer.Shutdown(shutdownCtx))
		}
		if scheduler != nil {
			scheduler.Stop()
		}
		return errors.Join(err, backend.Close(shutdownCtx))
	})

	return g.Wait()
}

func listen(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}
	return nil
}
