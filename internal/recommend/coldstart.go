// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
)

// coldStartHandler serves users absent from the interaction matrix.
//
// The trigger is unconditional: matrix absence alone decides cold-start,
// even when auxiliary signals suggest recent activity. That is a hard
// rule, not a staleness race to fix; newer-but-unindexed activity is
// logged as informational only.
type coldStartHandler struct {
	cfg      ColdStartConfig
	weights  WeightsConfig
	combiner *Combiner
	catalog  *catalog.Store
	logger   zerolog.Logger
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newColdStartHandler(cfg ColdStartConfig, weights WeightsConfig, combiner *Combiner, cat *catalog.Store, logger zerolog.Logger) *coldStartHandler {
	return &coldStartHandler{
		cfg:      cfg,
		weights:  weights,
		combiner: combiner,
		catalog:  cat,
		logger:   logger.With().Str("component", "coldstart").Logger(),
	}
}

// candidates builds the cold-start candidate pool: an oversized blend of
// both providers' cold-start lists, heavily skewed toward the FECF model,
// mixed 70/30 with purely trend-ranked projects. The returned weights
// carry an amplified diversity pressure for the reranker.
func (h *coldStartHandler) candidates(ctx context.Context, fecf, ncf []CandidateScore, n int) ([]ScoredProject, EnsembleWeights) {
	w := EnsembleWeights{
		FECF:      h.weights.ColdStartFECF,
		NCF:       1 - h.weights.ColdStartFECF,
		Diversity: h.amplifiedDiversity(),
	}

	normFECF, invalidA := NormalizeScores(fecf)
	normNCF, invalidB := NormalizeScores(ncf)
	if invalidA+invalidB > 0 {
		h.logger.Warn().Int("count", invalidA+invalidB).Msg("invalid provider scores clipped")
	}

	// One provider dominates by construction, so a plain weighted blend
	// is enough; the selective agreement logic adds nothing here.
	blended := h.combiner.Combine(normFECF, normNCF, w, MethodSimpleBlend)

	pool := h.mixWithTrending(blended, n)
	return pool, w
}

// mixWithTrending fills the pool with model-derived items first, then
// tops it up with trend-ranked projects at the configured ratio.
func (h *coldStartHandler) mixWithTrending(blended []ScoredProject, n int) []ScoredProject {
	poolSize := n * h.cfg.CandidateFactor
	modelCount := int(math.Ceil(float64(poolSize) * (1 - h.cfg.TrendMixRatio)))
	if modelCount > len(blended) {
		modelCount = len(blended)
	}

	pool := make([]ScoredProject, 0, poolSize)
	seen := make(map[string]struct{}, poolSize)
	for _, sp := range blended[:modelCount] {
		pool = append(pool, sp)
		seen[sp.ProjectID] = struct{}{}
	}

	snap := h.catalog.Snapshot()
	for _, id := range snap.TopTrending(poolSize) {
		if len(pool) >= poolSize {
			break
		}
		if _, dup := seen[id]; dup {
			continue
		}
		p, ok := snap.Project(id)
		if !ok {
			continue
		}
		pool = append(pool, ScoredProject{
			ProjectID: id,
			Score:     p.TrendScore / 100,
			Sources:   []ProviderID{ProviderTrending},
		})
		seen[id] = struct{}{}
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		return pool[i].ProjectID < pool[j].ProjectID
	})
	return pool
}

// amplifiedDiversity scales the base diversity weight for discovery. The
// amplified value feeds the reranker only and may exceed the [0.1, 0.5]
// band that applies to regular-path weights; it is still bounded.
func (h *coldStartHandler) amplifiedDiversity() float64 {
	d := h.weights.BaseDiversity * h.cfg.DiversityAmplifier
	if d > 0.75 {
		d = 0.75
	}
	return d
}
