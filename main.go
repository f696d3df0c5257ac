package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fragmede/corebalance/internal/api"
	"github.com/fragmede/corebalance/internal/auth"
	"github.com/fragmede/corebalance/internal/cache"
	"github.com/fragmede/corebalance/internal/config"
	"github.com/fragmede/corebalance/internal/logging"
	"github.com/fragmede/corebalance/internal/metrics"
	"github.com/fragmede/corebalance/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}

	logFile, err := logging.OpenFile(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer logFile.Close()
	logger := slog.Default()

	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening session store: %v", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg)
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	client, err := api.NewClient(api.Options{
		BaseURL:       cfg.SupabaseURL,
		AnonKey:       cfg.SupabaseAnonKey,
		Timeout:       cfg.RequestTimeout,
		RefreshMargin: cfg.RefreshMargin,
		RateLimit:     cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
		Store:         db,
		Observer:      collector,
		Logger:        logger.With("component", "gotrue"),
	})
	if err != nil {
		log.Fatalf("creating auth client: %v", err)
	}

	controller := auth.NewController(client,
		auth.WithLogger(logger.With("component", "auth")),
		auth.WithRecorder(collector),
	)

	app := ui.NewApp(controller)
	defer app.Close()
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetProgram(p)
	logger.Info("starting", "provider", cfg.SupabaseURL)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return srv
}
