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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Clark-Hu/cinecast/internal/boxoffice"
	"github.com/Clark-Hu/cinecast/internal/config"
	httpserver "github.com/Clark-Hu/cinecast/internal/http"
	"github.com/Clark-Hu/cinecast/internal/logging"
	"github.com/Clark-Hu/cinecast/internal/metrics"
	"github.com/Clark-Hu/cinecast/internal/repository"
	"github.com/Clark-Hu/cinecast/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFile(".env")
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", "cinecast-api"))

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer st.Close()

	if cfg.AutoMigrate {
		if err := st.Migrate(dbCtx); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	metrics.RegisterPoolStats(reg, st.Stats)

	var boxClient boxoffice.Client
	if cfg.BoxOfficeEnabled() {
		client, err := boxoffice.NewHTTPClient(cfg.BoxOfficeURL, cfg.BoxOfficeAPIKey, time.Duration(cfg.BoxOfficeTimeoutSecs)*time.Second, logger)
		if err != nil {
			logger.Fatal("init box office client", zap.Error(err))
		}
		boxClient = client
	} else {
		logger.Info("box office sync disabled, BOXOFFICE_URL not set")
	}

	repo := repository.New(st, repository.WithLogger(logger), repository.WithObserver(m))
	server := httpserver.New(cfg, st, repo, boxClient, reg, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}
