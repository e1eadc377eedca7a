// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

// Package main is the entry point for the recommendation server.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env vars)
//  2. Logging: zerolog with JSON or console output
//  3. Catalog: project snapshot loaded from disk, periodic atomic reloads
//  4. Interaction matrix: optional historical interactions file
//  5. Engine: weight calculator, ensemble combiner, diversity re-ranker,
//     result cache, scoring providers behind circuit breakers
//  6. Snapshots: engine weight/performance state persisted periodically
//  7. Metrics: Prometheus endpoint (optional)
//
// # Configuration
//
// Environment variables override the config file, which overrides defaults:
//
//	export CATALOG_PROJECTS_PATH=/data/projects.json
//	export CATALOG_INTERACTIONS_PATH=/data/interactions.json
//	export LOG_LEVEL=debug
//	./recommender
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the metrics listener stops,
// background reload and snapshot loops exit, and a final state snapshot is
// written.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
	"github.com/feyfry/recommender-system-sub000/internal/config"
	"github.com/feyfry/recommender-system-sub000/internal/logging"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		l := logging.Logger()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(cfg.Logging)
	logger := logging.Component("main")

	logger.Info().
		Str("projects_path", cfg.Catalog.ProjectsPath).
		Bool("cache_enabled", cfg.Engine.Cache.Enabled).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Msg("starting recommendation server")

	snap, err := catalog.LoadFile(cfg.Catalog.ProjectsPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Catalog.ProjectsPath).Msg("failed to load project catalog")
	}
	store := catalog.NewStore(snap)
	logger.Info().Int("projects", snap.Len()).Msg("catalog loaded")

	matrix := loadMatrix(cfg, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	components, err := initEngine(cfg, store, matrix, registry)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize recommendation engine")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = startMetricsServer(cfg.Metrics.Addr, registry, logger)
	}

	go catalogReloadLoop(ctx, cfg.Catalog, store, components, logger)
	go snapshotLoop(ctx, cfg.Snapshots, components, logger)

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics server shutdown failed")
		}
	}

	if err := components.saveSnapshot(); err != nil {
		logger.Warn().Err(err).Msg("final state snapshot failed")
	}

	logger.Info().Msg("shutdown complete")
}

// loadMatrix builds the interaction matrix from the optional historical
// interactions file. A missing file is not fatal; every user is then a
// cold-start user until interactions are recorded.
func loadMatrix(cfg *config.Config, logger zerolog.Logger) *catalog.InteractionMatrix {
	if cfg.Catalog.InteractionsPath == "" {
		logger.Info().Msg("no interactions file configured, starting with empty matrix")
		return catalog.NewInteractionMatrix(nil)
	}

	interactions, err := catalog.LoadInteractionsFile(cfg.Catalog.InteractionsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", cfg.Catalog.InteractionsPath).Msg("interactions file not found, starting with empty matrix")
			return catalog.NewInteractionMatrix(nil)
		}
		logger.Fatal().Err(err).Msg("failed to load interactions")
	}

	matrix := catalog.NewInteractionMatrix(interactions)
	logger.Info().
		Int("interactions", len(interactions)).
		Int("users", matrix.UserCount()).
		Msg("interaction matrix loaded")
	return matrix
}

// startMetricsServer exposes the Prometheus registry over HTTP.
func startMetricsServer(addr string, registry *prometheus.Registry, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return srv
}

// catalogReloadLoop periodically re-reads the catalog file and swaps the
// snapshot in atomically. In-flight requests keep the snapshot they hold.
func catalogReloadLoop(ctx context.Context, cfg config.CatalogConfig, store *catalog.Store, components *engineComponents, logger zerolog.Logger) {
	if cfg.ReloadInterval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := catalog.LoadFile(cfg.ProjectsPath)
			if err != nil {
				logger.Warn().Err(err).Msg("catalog reload failed, keeping current snapshot")
				continue
			}
			store.Reload(snap)
			cleared := components.engine.ClearCache(true)
			logger.Info().
				Int("projects", snap.Len()).
				Int("cache_cleared", cleared.Cleared).
				Msg("catalog reloaded")
		}
	}
}

// snapshotLoop periodically persists engine weight and performance state.
func snapshotLoop(ctx context.Context, cfg config.SnapshotsConfig, components *engineComponents, logger zerolog.Logger) {
	if cfg.SaveInterval <= 0 || components.snapshots == nil {
		return
	}

	ticker := time.NewTicker(cfg.SaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := components.saveSnapshot(); err != nil {
				logger.Warn().Err(err).Msg("state snapshot failed")
			}
		}
	}
}
