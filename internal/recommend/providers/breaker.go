// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package providers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/feyfry/recommender-system-sub000/internal/recommend"
)

// BreakerConfig configures the provider circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// breaker. Default: 5.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing.
	// Default: 30s.
	OpenTimeout time.Duration

	// MaxHalfOpenRequests bounds probe requests while half-open.
	// Default: 1.
	MaxHalfOpenRequests uint32
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold:    5,
		OpenTimeout:         30 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// Breaker decorates a ScoringProvider with a circuit breaker. A string of
// failures opens the circuit and subsequent calls return empty lists
// immediately, which the engine already treats as "provider unavailable";
// the failing model never stalls the request path.
type Breaker struct {
	inner   recommend.ScoringProvider
	breaker *gobreaker.CircuitBreaker[[]recommend.CandidateScore]
	logger  zerolog.Logger
}

// NewBreaker wraps a provider with a circuit breaker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreaker(inner recommend.ScoringProvider, cfg BreakerConfig, logger zerolog.Logger) *Breaker {
	logger = logger.With().
		Str("component", "provider_breaker").
		Str("provider", string(inner.Name())).
		Logger()

	settings := gobreaker.Settings{
		Name:        string(inner.Name()),
		MaxRequests: cfg.MaxHalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider breaker state change")
		},
	}

	return &Breaker{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[[]recommend.CandidateScore](settings),
		logger:  logger,
	}
}

// Name returns the wrapped provider's identifier.
func (b *Breaker) Name() recommend.ProviderID {
	return b.inner.Name()
}

// RecommendForUser proxies through the breaker.
func (b *Breaker) RecommendForUser(ctx context.Context, userID string, n int, excludeKnown bool) ([]recommend.CandidateScore, error) {
	return b.execute(func() ([]recommend.CandidateScore, error) {
		return b.inner.RecommendForUser(ctx, userID, n, excludeKnown)
	})
}

// ColdStartRecommendations proxies through the breaker.
func (b *Breaker) ColdStartRecommendations(ctx context.Context, interests []string, n int) ([]recommend.CandidateScore, error) {
	return b.execute(func() ([]recommend.CandidateScore, error) {
		return b.inner.ColdStartRecommendations(ctx, interests, n)
	})
}

// IsTrained reports the wrapped provider's training state.
func (b *Breaker) IsTrained() bool {
	return b.inner.IsTrained()
}

func (b *Breaker) execute(call func() ([]recommend.CandidateScore, error)) ([]recommend.CandidateScore, error) {
	scores, err := b.breaker.Execute(call)
	if err != nil {
		// Open breaker and call failures look the same to the engine:
		// an empty list, i.e. provider unavailable.
		return nil, err
	}
	return scores, nil
}

// Ensure Breaker implements the interface.
var _ recommend.ScoringProvider = (*Breaker)(nil)
