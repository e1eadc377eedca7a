// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"context"
	"time"
)

// ProviderID identifies one of the two scoring providers.
type ProviderID string

const (
	// ProviderFECF is the feature-similarity model (provider A). It is the
	// higher-precision default and carries the larger base trust.
	ProviderFECF ProviderID = "fecf"

	// ProviderNCF is the learned interaction model (provider B).
	ProviderNCF ProviderID = "ncf"

	// ProviderTrending attributes items seeded from catalog trend scores
	// on the cold-start path.
	ProviderTrending ProviderID = "trending"
)

// CandidateScore is one provider's raw opinion about a project.
// Immutable; consumed once per request.
type CandidateScore struct {
	// ProjectID identifies the project.
	ProjectID string `json:"project_id"`

	// Score is the provider's raw, unnormalized score.
	Score float64 `json:"score"`
}

// NormalizedScore is a CandidateScore rescaled onto [0, 1] via percentile
// clipping so scores from different providers are comparable.
type NormalizedScore struct {
	ProjectID string  `json:"project_id"`
	Score     float64 `json:"score"`
}

// EnsembleWeights is the per-user trust split between the two providers
// plus the diversity pressure applied during reranking.
//
// Invariants: FECF + NCF == 1, Diversity in [0.1, 0.5].
type EnsembleWeights struct {
	// FECF is the weight for the feature-similarity model.
	FECF float64 `json:"fecf"`

	// NCF is the weight for the learned interaction model.
	NCF float64 `json:"ncf"`

	// Diversity scales the diversity adjustment during reranking.
	Diversity float64 `json:"diversity"`
}

// ScoredProject is an intermediate scored candidate flowing from the
// ensemble combiner into the diversity reranker.
type ScoredProject struct {
	// ProjectID identifies the project.
	ProjectID string `json:"project_id"`

	// Score is the combined ensemble score in [0, 1].
	Score float64 `json:"score"`

	// Sources lists the providers that contributed to the score.
	Sources []ProviderID `json:"sources"`
}

// FilterMatch tags how a recommendation matched a category/chain filter.
type FilterMatch string

const (
	// MatchExact means both requested filters matched.
	MatchExact FilterMatch = "exact"
	// MatchCategoryOnly means only the category filter matched.
	MatchCategoryOnly FilterMatch = "category_only"
	// MatchChainOnly means only the chain filter matched.
	MatchChainOnly FilterMatch = "chain_only"
	// MatchPartial means a partial category match (shared tag prefix).
	MatchPartial FilterMatch = "partial"
)

// RecommendationItem is a terminal recommendation returned to the caller.
type RecommendationItem struct {
	// ProjectID identifies the recommended project.
	ProjectID string `json:"id"`

	// Score is the final recommendation score in [0, 1]. This is the
	// original ensemble score; diversity adjustments only steer selection
	// order and are never reported.
	Score float64 `json:"recommendation_score"`

	// Sources lists the providers that contributed to this item.
	Sources []ProviderID `json:"recommendation_source"`

	// FilterMatch is set on category/chain filtered retrievals.
	FilterMatch FilterMatch `json:"filter_match,omitempty"`
}

// ModelPerformanceRecord holds a provider's recent offline accuracy,
// produced by an external evaluation job and read by the weight calculator.
type ModelPerformanceRecord struct {
	Provider  ProviderID `json:"provider"`
	Precision float64    `json:"precision"`
	Recall    float64    `json:"recall"`
	NDCG      float64    `json:"ndcg"`
	HitRatio  float64    `json:"hit_ratio"`
}

// MeanAccuracy is the provider's mean of precision and recall, the signal
// the weight calculator corrects on.
func (r ModelPerformanceRecord) MeanAccuracy() float64 {
	return (r.Precision + r.Recall) / 2
}

// Request is a recommendation request.
type Request struct {
	// UserID is the user to recommend for.
	UserID string `json:"user_id"`

	// N is the number of recommendations to return.
	// Defaults to Config.Limits.DefaultN if zero.
	N int `json:"n,omitempty"`

	// ExcludeKnown removes projects the user has already interacted with.
	ExcludeKnown bool `json:"exclude_known,omitempty"`

	// Category filters results to a category (empty = no filter).
	Category string `json:"category,omitempty"`

	// Chain filters results to a chain (empty = no filter).
	Chain string `json:"chain,omitempty"`

	// Strict returns only exact filter matches; when false, partial
	// matches backfill the list tagged accordingly.
	Strict bool `json:"strict,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is a recommendation response.
type Response struct {
	// Items is the ordered recommendation list. May be empty: "no
	// recommendations" is a valid outcome, distinct from an error.
	Items []RecommendationItem `json:"items"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the recommendations are for.
	UserID string `json:"user_id"`

	// ColdStart reports whether the cold-start path served this response.
	ColdStart bool `json:"cold_start"`

	// Weights is the ensemble weight triple used.
	Weights EnsembleWeights `json:"weights"`

	// ProvidersUsed lists providers that contributed scores.
	ProvidersUsed []ProviderID `json:"providers_used"`

	// CacheHit indicates the result was served from cache.
	CacheHit bool `json:"cache_hit"`

	// LatencyMS is the total serving latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated. Refreshed on cache
	// hits; recommendation content is not.
	Timestamp time.Time `json:"timestamp"`
}

// ScoringProvider is the contract consumed from each external scoring
// engine. A provider signals internal failure by returning an empty list
// or an error; the engine treats both as "provider unavailable" and
// redistributes weight, never failing the request.
type ScoringProvider interface {
	// Name returns the provider identifier.
	Name() ProviderID

	// RecommendForUser returns raw-scored candidates for a user, ordered
	// by provider preference.
	RecommendForUser(ctx context.Context, userID string, n int, excludeKnown bool) ([]CandidateScore, error)

	// ColdStartRecommendations returns candidates for a user with no
	// history, optionally steered by declared interests.
	ColdStartRecommendations(ctx context.Context, interests []string, n int) ([]CandidateScore, error)

	// IsTrained reports whether the provider's model is usable.
	IsTrained() bool
}

// CategoryRecommender is an optional provider capability for retrieving
// candidates already narrowed to a category. Checked via type assertion.
type CategoryRecommender interface {
	RecommendForCategory(ctx context.Context, userID, category string, n int) ([]CandidateScore, error)
}

// ChainRecommender is an optional provider capability for retrieving
// candidates already narrowed to a chain. Checked via type assertion.
type ChainRecommender interface {
	RecommendForChain(ctx context.Context, userID, chain string, n int) ([]CandidateScore, error)
}

// Reranker reshapes a combined ranking to satisfy a secondary objective.
type Reranker interface {
	// Name returns the reranker identifier.
	Name() string

	// Rerank selects up to n items from the combined list. The returned
	// items keep their original scores; the reranker only changes which
	// items appear and in what order.
	Rerank(ctx context.Context, items []ScoredProject, n int, diversityWeight float64) []ScoredProject
}

// CacheStats reports the outcome of a cache administration call.
type CacheStats struct {
	// Cleared is the number of entries removed.
	Cleared int `json:"cleared"`

	// Remaining is the number of entries left after the operation.
	Remaining int `json:"remaining"`
}
