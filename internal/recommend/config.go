// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights contains adaptive weight calculator parameters.
	Weights WeightsConfig `json:"weights" koanf:"weights"`

	// Ensemble contains selective combination parameters.
	Ensemble EnsembleConfig `json:"ensemble" koanf:"ensemble"`

	// Diversity contains diversity reranking parameters.
	Diversity DiversityConfig `json:"diversity" koanf:"diversity"`

	// ColdStart contains cold-start handler parameters.
	ColdStart ColdStartConfig `json:"cold_start" koanf:"cold_start"`

	// Cache contains result cache parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`
}

// WeightsConfig contains adaptive weight calculator parameters.
type WeightsConfig struct {
	// BaseFECF is the base weight for the feature-similarity model,
	// used in the established-user band. Default: 0.5.
	BaseFECF float64 `json:"base_fecf" koanf:"base_fecf"`

	// ColdStartFECF is the FECF weight for users with almost no history.
	// Default: 0.95.
	ColdStartFECF float64 `json:"cold_start_fecf" koanf:"cold_start_fecf"`

	// LowThreshold is the interaction count below which the cold-start
	// weight applies. Default: 10.
	LowThreshold int `json:"low_threshold" koanf:"low_threshold"`

	// MinNCFInteractions is the count where the NCF model starts earning
	// trust and the interpolation band begins. Default: 20.
	MinNCFInteractions int `json:"min_ncf_interactions" koanf:"min_ncf_interactions"`

	// HighThreshold is the count where interpolation ends and base
	// weights apply. Default: 30.
	HighThreshold int `json:"high_threshold" koanf:"high_threshold"`

	// ConfidenceThreshold is the mean-accuracy floor below which a
	// provider's weight is halved. Default: 0.4.
	ConfidenceThreshold float64 `json:"confidence_threshold" koanf:"confidence_threshold"`

	// BaseDiversity is the starting diversity weight before per-user
	// nudges. Default: 0.3.
	BaseDiversity float64 `json:"base_diversity" koanf:"base_diversity"`
}

// EnsembleConfig contains selective combination parameters.
type EnsembleConfig struct {
	// ConfidenceFloor is the raw-score mean below which a flat provider
	// batch is considered uninformative. Default: 0.4.
	ConfidenceFloor float64 `json:"confidence_floor" koanf:"confidence_floor"`

	// FlatStdDev is the raw-score standard deviation at or below which a
	// batch counts as flat. Default: 0.1.
	FlatStdDev float64 `json:"flat_std_dev" koanf:"flat_std_dev"`

	// AgreementDelta is the score difference under which the two
	// providers are considered to agree. Default: 0.2.
	AgreementDelta float64 `json:"agreement_delta" koanf:"agreement_delta"`

	// AgreementBonus multiplies the blended score when providers agree.
	// Default: 1.1.
	AgreementBonus float64 `json:"agreement_bonus" koanf:"agreement_bonus"`

	// FECFOnlyPenalty scales items only the FECF model returned.
	// Default: 0.95.
	FECFOnlyPenalty float64 `json:"fecf_only_penalty" koanf:"fecf_only_penalty"`

	// NCFOnlyPenalty scales items only the NCF model returned.
	// Default: 0.8.
	NCFOnlyPenalty float64 `json:"ncf_only_penalty" koanf:"ncf_only_penalty"`
}

// DiversityConfig contains diversity reranking parameters.
type DiversityConfig struct {
	// CategoryShare bounds how much of a result one category may fill.
	// max_per_category = max(2, round(CategoryShare * n)). Default: 0.25.
	CategoryShare float64 `json:"category_share" koanf:"category_share"`

	// ChainShare bounds how much of a result one chain may fill.
	// max_per_chain = max(3, round(ChainShare * n)). Default: 0.33.
	ChainShare float64 `json:"chain_share" koanf:"chain_share"`

	// CategoryTermWeight weighs the category adjustment. Default: 0.6.
	CategoryTermWeight float64 `json:"category_term_weight" koanf:"category_term_weight"`

	// ChainTermWeight weighs the chain adjustment. Default: 0.25.
	ChainTermWeight float64 `json:"chain_term_weight" koanf:"chain_term_weight"`

	// TierTermWeight weighs the market-cap tier adjustment. Default: 0.15.
	TierTermWeight float64 `json:"tier_term_weight" koanf:"tier_term_weight"`
}

// ColdStartConfig contains cold-start handler parameters.
type ColdStartConfig struct {
	// CandidateFactor oversizes the candidate fetch (fetch factor*n from
	// each provider). Default: 3.
	CandidateFactor int `json:"candidate_factor" koanf:"candidate_factor"`

	// TrendMixRatio is the share of the final pool drawn from purely
	// trend-ranked projects. Default: 0.3.
	TrendMixRatio float64 `json:"trend_mix_ratio" koanf:"trend_mix_ratio"`

	// DiversityAmplifier scales the diversity weight for cold-start
	// reranking. Default: 1.5.
	DiversityAmplifier float64 `json:"diversity_amplifier" koanf:"diversity_amplifier"`
}

// CacheConfig contains result cache parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active. Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// ColdStartTTL applies to cold-start users. Default: 3m.
	ColdStartTTL time.Duration `json:"cold_start_ttl" koanf:"cold_start_ttl"`

	// LowActivityTTL applies to users with fewer than 10 interactions.
	// Default: 4m.
	LowActivityTTL time.Duration `json:"low_activity_ttl" koanf:"low_activity_ttl"`

	// DefaultTTL applies to everyone else. Default: 5m.
	DefaultTTL time.Duration `json:"default_ttl" koanf:"default_ttl"`

	// MaxEntries bounds the cache size. Default: 10000.
	MaxEntries int `json:"max_entries" koanf:"max_entries"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultN is the default result size. Default: 10.
	DefaultN int `json:"default_n" koanf:"default_n"`

	// MaxN is the maximum allowed result size. Default: 100.
	MaxN int `json:"max_n" koanf:"max_n"`

	// CandidateFactor oversizes the per-provider candidate fetch for the
	// regular path. Default: 2.
	CandidateFactor int `json:"candidate_factor" koanf:"candidate_factor"`

	// ProviderTimeout bounds a single provider call. A timeout is treated
	// as "provider unavailable", never as a fatal error. Default: 5s.
	ProviderTimeout time.Duration `json:"provider_timeout" koanf:"provider_timeout"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: WeightsConfig{
			BaseFECF:            0.5,
			ColdStartFECF:       0.95,
			LowThreshold:        10,
			MinNCFInteractions:  20,
			HighThreshold:       30,
			ConfidenceThreshold: 0.4,
			BaseDiversity:       0.3,
		},
		Ensemble: EnsembleConfig{
			ConfidenceFloor: 0.4,
			FlatStdDev:      0.1,
			AgreementDelta:  0.2,
			AgreementBonus:  1.1,
			FECFOnlyPenalty: 0.95,
			NCFOnlyPenalty:  0.8,
		},
		Diversity: DiversityConfig{
			CategoryShare:      0.25,
			ChainShare:         0.33,
			CategoryTermWeight: 0.6,
			ChainTermWeight:    0.25,
			TierTermWeight:     0.15,
		},
		ColdStart: ColdStartConfig{
			CandidateFactor:    3,
			TrendMixRatio:      0.3,
			DiversityAmplifier: 1.5,
		},
		Cache: CacheConfig{
			Enabled:        true,
			ColdStartTTL:   3 * time.Minute,
			LowActivityTTL: 4 * time.Minute,
			DefaultTTL:     5 * time.Minute,
			MaxEntries:     10000,
		},
		Limits: LimitsConfig{
			DefaultN:        10,
			MaxN:            100,
			CandidateFactor: 2,
			ProviderTimeout: 5 * time.Second,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Weights.BaseFECF < 0 || c.Weights.BaseFECF > 1 {
		return fmt.Errorf("weights.base_fecf must be in [0, 1], got %f", c.Weights.BaseFECF)
	}
	if c.Weights.ColdStartFECF < 0 || c.Weights.ColdStartFECF > 1 {
		return fmt.Errorf("weights.cold_start_fecf must be in [0, 1], got %f", c.Weights.ColdStartFECF)
	}
	if c.Weights.LowThreshold < 0 {
		return fmt.Errorf("weights.low_threshold must be non-negative, got %d", c.Weights.LowThreshold)
	}
	if c.Weights.MinNCFInteractions < c.Weights.LowThreshold {
		return fmt.Errorf("weights.min_ncf_interactions must be >= weights.low_threshold, got %d < %d",
			c.Weights.MinNCFInteractions, c.Weights.LowThreshold)
	}
	if c.Weights.HighThreshold <= c.Weights.MinNCFInteractions {
		return fmt.Errorf("weights.high_threshold must be > weights.min_ncf_interactions, got %d <= %d",
			c.Weights.HighThreshold, c.Weights.MinNCFInteractions)
	}
	if c.Weights.BaseDiversity < 0.1 || c.Weights.BaseDiversity > 0.5 {
		return fmt.Errorf("weights.base_diversity must be in [0.1, 0.5], got %f", c.Weights.BaseDiversity)
	}

	if c.Ensemble.AgreementDelta <= 0 {
		return fmt.Errorf("ensemble.agreement_delta must be positive, got %f", c.Ensemble.AgreementDelta)
	}
	if c.Ensemble.AgreementBonus < 1 {
		return fmt.Errorf("ensemble.agreement_bonus must be >= 1, got %f", c.Ensemble.AgreementBonus)
	}

	if c.Diversity.CategoryShare <= 0 || c.Diversity.CategoryShare > 1 {
		return fmt.Errorf("diversity.category_share must be in (0, 1], got %f", c.Diversity.CategoryShare)
	}
	if c.Diversity.ChainShare <= 0 || c.Diversity.ChainShare > 1 {
		return fmt.Errorf("diversity.chain_share must be in (0, 1], got %f", c.Diversity.ChainShare)
	}

	if c.ColdStart.CandidateFactor < 1 {
		return fmt.Errorf("cold_start.candidate_factor must be positive, got %d", c.ColdStart.CandidateFactor)
	}
	if c.ColdStart.TrendMixRatio < 0 || c.ColdStart.TrendMixRatio > 1 {
		return fmt.Errorf("cold_start.trend_mix_ratio must be in [0, 1], got %f", c.ColdStart.TrendMixRatio)
	}
	if c.ColdStart.DiversityAmplifier < 1 {
		return fmt.Errorf("cold_start.diversity_amplifier must be >= 1, got %f", c.ColdStart.DiversityAmplifier)
	}

	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}

	if c.Limits.DefaultN < 1 {
		return fmt.Errorf("limits.default_n must be positive, got %d", c.Limits.DefaultN)
	}
	if c.Limits.MaxN < c.Limits.DefaultN {
		return fmt.Errorf("limits.max_n must be >= limits.default_n, got %d < %d", c.Limits.MaxN, c.Limits.DefaultN)
	}
	if c.Limits.CandidateFactor < 1 {
		return fmt.Errorf("limits.candidate_factor must be positive, got %d", c.Limits.CandidateFactor)
	}
	if c.Limits.ProviderTimeout <= 0 {
		return fmt.Errorf("limits.provider_timeout must be positive, got %v", c.Limits.ProviderTimeout)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - nested structs contain only value types
	return &Config{
		Weights:   c.Weights,
		Ensemble:  c.Ensemble,
		Diversity: c.Diversity,
		ColdStart: c.ColdStart,
		Cache:     c.Cache,
		Limits:    c.Limits,
	}
}
