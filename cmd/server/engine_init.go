// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
	"github.com/feyfry/recommender-system-sub000/internal/config"
	"github.com/feyfry/recommender-system-sub000/internal/logging"
	"github.com/feyfry/recommender-system-sub000/internal/recommend"
	"github.com/feyfry/recommender-system-sub000/internal/recommend/providers"
	"github.com/feyfry/recommender-system-sub000/internal/recommend/reranking"
	"github.com/feyfry/recommender-system-sub000/internal/recommend/storage"
)

// stateSnapshotName is the file name for persisted engine state.
const stateSnapshotName = "engine-state"

// engineComponents holds the engine and its persistence dependencies.
type engineComponents struct {
	engine    *recommend.Engine
	snapshots *storage.Store
}

// initEngine wires the recommendation engine: providers behind circuit
// breakers, the diversity re-ranker, and persisted weight and performance
// state when a previous snapshot exists.
func initEngine(cfg *config.Config, store *catalog.Store, matrix *catalog.InteractionMatrix, registry *prometheus.Registry) (*engineComponents, error) {
	logger := logging.Component("recommend")

	engine, err := recommend.NewEngine(&cfg.Engine, store, matrix, logger, registry)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	// Catalog-backed trending providers serve until trained model services
	// are attached via SetProviders. Both sit behind circuit breakers so a
	// misbehaving provider degrades to single-source or cold-start handling
	// instead of failing requests.
	breakerCfg := providers.DefaultBreakerConfig()
	fecf := providers.NewBreaker(
		providers.NewTrending(recommend.ProviderFECF, store),
		breakerCfg,
		logging.Component("provider.fecf"),
	)
	ncf := providers.NewBreaker(
		providers.NewTrending(recommend.ProviderNCF, store),
		breakerCfg,
		logging.Component("provider.ncf"),
	)
	engine.SetProviders(fecf, ncf)

	engine.SetReranker(reranking.NewQuota(cfg.Engine.Diversity, store))

	var snapshots *storage.Store
	if cfg.Snapshots.Dir != "" {
		snapshots, err = storage.NewStore(cfg.Snapshots.Dir)
		if err != nil {
			return nil, fmt.Errorf("create snapshot store: %w", err)
		}
		restoreState(engine, snapshots, logger)
	}

	return &engineComponents{engine: engine, snapshots: snapshots}, nil
}

// restoreState loads persisted performance records from the last snapshot.
// A missing or corrupt snapshot is logged and skipped.
func restoreState(engine *recommend.Engine, snapshots *storage.Store, logger zerolog.Logger) {
	if !snapshots.Exists(stateSnapshotName) {
		return
	}

	snap, err := snapshots.Load(stateSnapshotName)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load engine state snapshot, starting fresh")
		return
	}

	for _, rec := range snap.Performance {
		engine.UpdatePerformance(rec)
	}
	logger.Info().
		Time("saved_at", snap.SavedAt).
		Int("performance_records", len(snap.Performance)).
		Msg("engine state restored")
}

// saveSnapshot persists current engine weight and performance state.
func (c *engineComponents) saveSnapshot() error {
	if c.snapshots == nil {
		return nil
	}
	return c.snapshots.Save(stateSnapshotName, storage.Snapshot{
		SavedAt:     time.Now().UTC(),
		Weights:     c.engine.Config().Weights,
		Performance: c.engine.Performance(),
	})
}
