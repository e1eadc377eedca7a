// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"github.com/rs/zerolog"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
)

// WeightCalculator computes the per-user ensemble weight triple from
// interaction-count banding and provider performance records.
//
// It never fails: an empty or partial performance map simply skips the
// performance correction, and the output always satisfies
// FECF + NCF == 1 and Diversity in [0.1, 0.5].
type WeightCalculator struct {
	cfg    WeightsConfig
	logger zerolog.Logger
}

// NewWeightCalculator creates a weight calculator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWeightCalculator(cfg WeightsConfig, logger zerolog.Logger) *WeightCalculator {
	return &WeightCalculator{
		cfg:    cfg,
		logger: logger.With().Str("component", "weights").Logger(),
	}
}

// Weights computes the ensemble weights for a user.
func (c *WeightCalculator) Weights(user catalog.UserContext, perf map[ProviderID]ModelPerformanceRecord) EnsembleWeights {
	fecf := c.bandedFECF(user.InteractionCount)
	fecf, ncf := c.applyPerformanceCorrection(fecf, perf)

	return EnsembleWeights{
		FECF:      fecf,
		NCF:       ncf,
		Diversity: c.diversityWeight(user),
	}
}

// bandedFECF applies the interaction-count banding to derive the FECF
// weight before any performance correction.
func (c *WeightCalculator) bandedFECF(count int) float64 {
	low := c.cfg.LowThreshold
	minNCF := c.cfg.MinNCFInteractions
	high := c.cfg.HighThreshold

	switch {
	case count < low:
		return c.cfg.ColdStartFECF
	case count < minNCF:
		return 0.8
	case count < high:
		// Linear interpolation from 0.8 down to the base weight across
		// the band [minNCF, high).
		t := float64(count-minNCF) / float64(high-minNCF)
		return 0.8 - t*(0.8-c.cfg.BaseFECF)
	case count <= 50:
		return c.cfg.BaseFECF
	case count <= 100:
		return 0.45
	default:
		return 0.4
	}
}

// applyPerformanceCorrection adjusts the split using each provider's mean
// of precision and recall. Missing records leave the banded split intact.
func (c *WeightCalculator) applyPerformanceCorrection(fecf float64, perf map[ProviderID]ModelPerformanceRecord) (float64, float64) {
	ncf := 1 - fecf

	recFECF, okA := perf[ProviderFECF]
	recNCF, okB := perf[ProviderNCF]
	if !okA || !okB {
		return normalizePair(fecf, ncf)
	}

	accFECF := recFECF.MeanAccuracy()
	accNCF := recNCF.MeanAccuracy()

	// An undertrained NCF model below the confidence floor loses half
	// its weight rather than diluting the ensemble.
	if accNCF < c.cfg.ConfidenceThreshold {
		ncf /= 2
		fecf, ncf = normalizePair(fecf, ncf)
	}

	// A clearly stronger provider earns a 20% boost, capped at 0.9.
	const dominanceRatio = 1.5
	switch {
	case accNCF > 0 && accFECF >= dominanceRatio*accNCF:
		fecf = boostCapped(fecf)
	case accFECF > 0 && accNCF >= dominanceRatio*accFECF:
		ncf = boostCapped(ncf)
	}

	return normalizePair(fecf, ncf)
}

func boostCapped(w float64) float64 {
	w *= 1.2
	if w > 0.9 {
		w = 0.9
	}
	return w
}

// normalizePair rescales the pair so it sums to exactly 1.
func normalizePair(a, b float64) (float64, float64) {
	sum := a + b
	if sum <= 0 {
		return 0.5, 0.5
	}
	a /= sum
	return a, 1 - a
}

// diversityWeight nudges the base diversity weight by user disposition
// and clamps it to [0.1, 0.5].
func (c *WeightCalculator) diversityWeight(user catalog.UserContext) float64 {
	d := c.cfg.BaseDiversity

	switch {
	case user.ExplorationRate >= 0.7 || user.Recency == catalog.RecencyNew:
		d += 0.1
	case user.ExplorationRate <= 0.2:
		d -= 0.05
	}

	if d < 0.1 {
		d = 0.1
	}
	if d > 0.5 {
		d = 0.5
	}
	return d
}
