// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
)

// Engine arbitrates between the two scoring providers and produces final,
// diversity-shaped recommendation lists. It owns its cache and provider
// handles explicitly; construct one per process and pass it by reference.
// Safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	fecf ScoringProvider
	ncf  ScoringProvider

	catalog *catalog.Store
	matrix  *catalog.InteractionMatrix

	calculator *WeightCalculator
	combiner   *Combiner
	reranker   Reranker
	coldstart  *coldStartHandler

	cache   *resultCache
	metrics *Metrics

	perfMu sync.RWMutex
	perf   map[ProviderID]ModelPerformanceRecord

	sf singleflight.Group
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, cat *catalog.Store, matrix *catalog.InteractionMatrix, logger zerolog.Logger, reg prometheus.Registerer) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cat == nil || matrix == nil {
		return nil, fmt.Errorf("catalog store and interaction matrix are required")
	}

	logger = logger.With().Str("component", "recommend").Logger()
	combiner := NewCombiner(cfg.Ensemble, logger)

	return &Engine{
		config:     cfg,
		logger:     logger,
		catalog:    cat,
		matrix:     matrix,
		calculator: NewWeightCalculator(cfg.Weights, logger),
		combiner:   combiner,
		coldstart:  newColdStartHandler(cfg.ColdStart, cfg.Weights, combiner, cat, logger),
		cache:      newResultCache(cfg.Cache),
		metrics:    NewMetrics(reg),
		perf:       make(map[ProviderID]ModelPerformanceRecord),
	}, nil
}

// SetProviders wires the two scoring providers.
func (e *Engine) SetProviders(fecf, ncf ScoringProvider) {
	e.fecf = fecf
	e.ncf = ncf
}

// SetReranker wires the diversity reranker.
func (e *Engine) SetReranker(rr Reranker) {
	e.reranker = rr
	e.logger.Info().Str("reranker", rr.Name()).Msg("registered reranker")
}

// UpdatePerformance replaces the stored performance record for a provider.
// Called by the external evaluation job's ingestion path.
func (e *Engine) UpdatePerformance(rec ModelPerformanceRecord) {
	e.perfMu.Lock()
	defer e.perfMu.Unlock()
	e.perf[rec.Provider] = rec
}

// Performance returns a copy of the stored performance records.
func (e *Engine) Performance() []ModelPerformanceRecord {
	e.perfMu.RLock()
	defer e.perfMu.RUnlock()

	out := make([]ModelPerformanceRecord, 0, len(e.perf))
	for _, rec := range e.perf {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

func (e *Engine) perfSnapshot() map[ProviderID]ModelPerformanceRecord {
	e.perfMu.RLock()
	defer e.perfMu.RUnlock()

	out := make(map[ProviderID]ModelPerformanceRecord, len(e.perf))
	for id, rec := range e.perf {
		out[id] = rec
	}
	return out
}

// computeResult is the cacheable outcome of one recommendation pass.
type computeResult struct {
	items     []RecommendationItem
	coldStart bool
	weights   EnsembleWeights
	providers []ProviderID
}

// Recommend generates recommendations for a user.
//
// No condition here is fatal: provider failures redistribute weight, a
// double failure falls back to the cold-start path, and the worst case is
// an empty list, which callers must treat as a valid outcome.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req = e.prepareRequest(req)
	logger := e.requestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	key := cacheKey(req)
	if e.config.Cache.Enabled {
		if entry, ok := e.cache.get(key); ok {
			e.metrics.cacheHits.Inc()
			logger.Debug().Msg("cache hit")
			return e.cachedResponse(req, entry, start), nil
		}
		e.metrics.cacheMisses.Inc()
	}

	// Collapse identical concurrent misses into one computation.
	v, err, _ := e.sf.Do(key, func() (any, error) {
		res, err := e.compute(ctx, req, logger)
		if err != nil {
			return nil, err
		}
		// An aborted caller leaves providers abandoned mid-fetch; the
		// result may be a degraded partial list and must not be cached.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.config.Cache.Enabled {
			e.cache.put(key, cacheEntry{
				userID:    req.UserID,
				items:     res.items,
				coldStart: res.coldStart,
				weights:   res.weights,
				providers: res.providers,
			}, e.matrix.InteractionCount(req.UserID))
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	res := v.(*computeResult)

	path := "personalized"
	if res.coldStart {
		path = "cold_start"
	}
	e.metrics.requestsTotal.WithLabelValues(path).Inc()
	e.metrics.latency.Observe(time.Since(start).Seconds())

	logger.Debug().
		Int("returned", len(res.items)).
		Bool("cold_start", res.coldStart).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("recommendation complete")

	return e.buildResponse(req, res, start, false), nil
}

// RecommendByCategory generates recommendations narrowed to a category
// and optionally a chain. Strict mode returns only exact matches, which
// may legitimately be empty; otherwise partial, category-only, and
// chain-only matches backfill the list, tagged accordingly.
func (e *Engine) RecommendByCategory(ctx context.Context, userID, category string, n int, chain string, strict bool) (*Response, error) {
	return e.Recommend(ctx, Request{
		UserID:       userID,
		N:            n,
		ExcludeKnown: true,
		Category:     strings.ToLower(strings.TrimSpace(category)),
		Chain:        strings.ToLower(strings.TrimSpace(chain)),
		Strict:       strict,
	})
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.N <= 0 {
		req.N = e.config.Limits.DefaultN
	}
	if req.N > e.config.Limits.MaxN {
		req.N = e.config.Limits.MaxN
	}
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Chain = strings.ToLower(strings.TrimSpace(req.Chain))
	return req
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) requestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()
}

// compute runs the full pipeline for one request.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) compute(ctx context.Context, req Request, logger zerolog.Logger) (*computeResult, error) {
	userCtx := e.matrix.UserContext(req.UserID, e.catalog.Snapshot())

	// Matrix absence is the sole cold-start criterion. Recent activity
	// that the matrix has not indexed yet is informational only.
	if !userCtx.InMatrix {
		if userCtx.HasRecentActivity {
			logger.Info().Bool("stale_activity", true).Msg("cold-start user has unindexed recent activity")
		}
		return e.computeColdStart(ctx, req)
	}

	return e.computePersonalized(ctx, req, userCtx, logger)
}

// computePersonalized is the regular path: weights, concurrent provider
// fetches, normalization, selective combination, diversity reranking.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) computePersonalized(ctx context.Context, req Request, userCtx catalog.UserContext, logger zerolog.Logger) (*computeResult, error) {
	w := e.calculator.Weights(userCtx, e.perfSnapshot())
	fetchN := req.N * e.config.Limits.CandidateFactor

	// The two providers are independent; fetch them concurrently. The
	// combiner needs both results before proceeding.
	var rawFECF, rawNCF []CandidateScore
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rawFECF = e.fetchProvider(gctx, e.fecf, req, fetchN, logger)
		return nil
	})
	g.Go(func() error {
		rawNCF = e.fetchProvider(gctx, e.ncf, req, fetchN, logger)
		return nil
	})
	_ = g.Wait()

	fecfOK, ncfOK := len(rawFECF) > 0, len(rawNCF) > 0
	if !fecfOK && !ncfOK {
		logger.Warn().Msg("both providers unavailable, falling back to cold-start path")
		return e.computeColdStart(ctx, req)
	}

	// An unavailable provider's weight moves entirely to the survivor.
	switch {
	case !fecfOK:
		w.FECF, w.NCF = 0, 1
	case !ncfOK:
		w.FECF, w.NCF = 1, 0
	}

	normFECF, invalidA := NormalizeScores(rawFECF)
	normNCF, invalidB := NormalizeScores(rawNCF)
	if invalidA+invalidB > 0 {
		logger.Warn().Int("count", invalidA+invalidB).Msg("invalid provider scores clipped")
	}

	combined := e.combiner.CombineSelective(rawFECF, rawNCF, normFECF, normNCF, w)
	combined = e.applyExclusions(combined, req)

	items := e.finalize(ctx, combined, req, w.Diversity)

	providers := make([]ProviderID, 0, 2)
	if fecfOK {
		providers = append(providers, ProviderFECF)
	}
	if ncfOK {
		providers = append(providers, ProviderNCF)
	}

	return &computeResult{
		items:     items,
		coldStart: false,
		weights:   w,
		providers: providers,
	}, nil
}

// computeColdStart serves users absent from the matrix, and doubles as
// the fallback when both providers fail.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) computeColdStart(ctx context.Context, req Request) (*computeResult, error) {
	fetchN := req.N * e.config.ColdStart.CandidateFactor

	var rawFECF, rawNCF []CandidateScore
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rawFECF = e.fetchColdStart(gctx, e.fecf, fetchN)
		return nil
	})
	g.Go(func() error {
		rawNCF = e.fetchColdStart(gctx, e.ncf, fetchN)
		return nil
	})
	_ = g.Wait()

	pool, w := e.coldstart.candidates(ctx, rawFECF, rawNCF, req.N)
	pool = e.applyExclusions(pool, req)
	items := e.finalize(ctx, pool, req, w.Diversity)

	providers := make([]ProviderID, 0, 3)
	if len(rawFECF) > 0 {
		providers = append(providers, ProviderFECF)
	}
	if len(rawNCF) > 0 {
		providers = append(providers, ProviderNCF)
	}
	providers = append(providers, ProviderTrending)

	return &computeResult{
		items:     items,
		coldStart: true,
		weights:   w,
		providers: providers,
	}, nil
}

// fetchProvider calls one provider with a bounded timeout. Every failure
// mode (nil provider, untrained model, error, timeout, empty list) is
// reported as an empty list: provider unavailable, never fatal.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) fetchProvider(ctx context.Context, p ScoringProvider, req Request, n int, logger zerolog.Logger) []CandidateScore {
	if p == nil || !p.IsTrained() {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.Limits.ProviderTimeout)
	defer cancel()

	scores, err := e.callProvider(callCtx, p, req, n)
	if err != nil {
		e.metrics.providerFailures.WithLabelValues(string(p.Name())).Inc()
		logger.Warn().Str("provider", string(p.Name())).Err(err).Msg("provider unavailable")
		return nil
	}
	return scores
}

// callProvider picks the narrowest capability the provider offers for the
// request: category- or chain-scoped retrieval when supported, otherwise
// the plain per-user recommendation call.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) callProvider(ctx context.Context, p ScoringProvider, req Request, n int) ([]CandidateScore, error) {
	if req.Category != "" {
		if cr, ok := p.(CategoryRecommender); ok {
			return cr.RecommendForCategory(ctx, req.UserID, req.Category, n)
		}
	}
	if req.Chain != "" && req.Category == "" {
		if cr, ok := p.(ChainRecommender); ok {
			return cr.RecommendForChain(ctx, req.UserID, req.Chain, n)
		}
	}
	return p.RecommendForUser(ctx, req.UserID, n, req.ExcludeKnown)
}

// fetchColdStart calls one provider's cold-start method, tolerating all
// failures the same way fetchProvider does.
func (e *Engine) fetchColdStart(ctx context.Context, p ScoringProvider, n int) []CandidateScore {
	if p == nil || !p.IsTrained() {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.Limits.ProviderTimeout)
	defer cancel()

	scores, err := p.ColdStartRecommendations(callCtx, nil, n)
	if err != nil {
		e.metrics.providerFailures.WithLabelValues(string(p.Name())).Inc()
		e.logger.Warn().Str("provider", string(p.Name())).Err(err).Msg("cold-start provider unavailable")
		return nil
	}
	return scores
}

// applyExclusions removes the user's known projects when requested.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) applyExclusions(items []ScoredProject, req Request) []ScoredProject {
	if !req.ExcludeKnown {
		return items
	}
	history := e.matrix.UserHistory(req.UserID)
	if len(history) == 0 {
		return items
	}
	exclude := make(map[string]struct{}, len(history))
	for _, id := range history {
		exclude[id] = struct{}{}
	}

	filtered := make([]ScoredProject, 0, len(items))
	for _, sp := range items {
		if _, known := exclude[sp.ProjectID]; !known {
			filtered = append(filtered, sp)
		}
	}
	return filtered
}

// finalize applies category/chain filtering, diversity reranking, and
// converts to terminal recommendation items.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) finalize(ctx context.Context, combined []ScoredProject, req Request, diversityWeight float64) []RecommendationItem {
	if req.Category != "" || req.Chain != "" {
		return e.finalizeFiltered(ctx, combined, req, diversityWeight)
	}

	ranked := e.rerank(ctx, combined, req.N, diversityWeight)
	items := make([]RecommendationItem, len(ranked))
	for i, sp := range ranked {
		items[i] = RecommendationItem{
			ProjectID: sp.ProjectID,
			Score:     sp.Score,
			Sources:   sp.Sources,
		}
	}
	return items
}

// finalizeFiltered classifies candidates against the requested filters,
// then assembles the result: exact matches first, then (unless strict)
// partial, category-only, and chain-only backfill in that order.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) finalizeFiltered(ctx context.Context, combined []ScoredProject, req Request, diversityWeight float64) []RecommendationItem {
	snap := e.catalog.Snapshot()

	buckets := map[FilterMatch][]ScoredProject{}
	for _, sp := range combined {
		match, ok := classifyFilterMatch(snap, sp.ProjectID, req.Category, req.Chain)
		if !ok {
			continue
		}
		buckets[match] = append(buckets[match], sp)
	}

	order := []FilterMatch{MatchExact}
	if !req.Strict {
		order = append(order, MatchPartial, MatchCategoryOnly, MatchChainOnly)
	}

	items := make([]RecommendationItem, 0, req.N)
	for _, match := range order {
		if len(items) >= req.N {
			break
		}
		ranked := e.rerank(ctx, buckets[match], req.N-len(items), diversityWeight)
		for _, sp := range ranked {
			items = append(items, RecommendationItem{
				ProjectID:   sp.ProjectID,
				Score:       sp.Score,
				Sources:     sp.Sources,
				FilterMatch: match,
			})
		}
	}
	return items
}

// classifyFilterMatch tags a project against the requested filters.
// Returns false when the project matches neither filter.
func classifyFilterMatch(snap *catalog.Snapshot, projectID, category, chain string) (FilterMatch, bool) {
	p, found := snap.Project(projectID)
	if !found {
		return "", false
	}

	catMatch, catPartial := false, false
	if category != "" {
		for _, c := range p.Categories {
			if c == category {
				catMatch = true
				break
			}
			if strings.Contains(c, category) || strings.Contains(category, c) {
				catPartial = true
			}
		}
	}
	chainMatch := chain != "" && p.Chain == chain

	switch {
	case category != "" && chain != "":
		switch {
		case catMatch && chainMatch:
			return MatchExact, true
		case catMatch:
			return MatchCategoryOnly, true
		case chainMatch:
			return MatchChainOnly, true
		case catPartial:
			return MatchPartial, true
		}
	case category != "":
		switch {
		case catMatch:
			return MatchExact, true
		case catPartial:
			return MatchPartial, true
		}
	case chain != "":
		if chainMatch {
			return MatchExact, true
		}
	}
	return "", false
}

// rerank runs the configured reranker, falling back to a plain head slice
// when none is wired.
func (e *Engine) rerank(ctx context.Context, items []ScoredProject, n int, diversityWeight float64) []ScoredProject {
	if len(items) == 0 || n <= 0 {
		return nil
	}
	if e.reranker == nil {
		if len(items) > n {
			return items[:n]
		}
		return items
	}
	return e.reranker.Rerank(ctx, items, n, diversityWeight)
}

// buildResponse assembles the caller-facing response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(req Request, res *computeResult, start time.Time, cacheHit bool) *Response {
	return &Response{
		Items: res.items,
		Metadata: ResponseMetadata{
			RequestID:     req.RequestID,
			UserID:        req.UserID,
			ColdStart:     res.coldStart,
			Weights:       res.weights,
			ProvidersUsed: res.providers,
			CacheHit:      cacheHit,
			LatencyMS:     time.Since(start).Milliseconds(),
			Timestamp:     time.Now(),
		},
	}
}

// cachedResponse converts a cache entry to a response. Timestamp and
// latency are refreshed; recommendation content is returned unchanged.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cachedResponse(req Request, entry cacheEntry, start time.Time) *Response {
	return e.buildResponse(req, &computeResult{
		items:     entry.items,
		coldStart: entry.coldStart,
		weights:   entry.weights,
		providers: entry.providers,
	}, start, true)
}

// ClearCache flushes the result cache. With full=false only expired
// entries are dropped.
func (e *Engine) ClearCache(full bool) CacheStats {
	if full {
		stats := e.cache.flush()
		e.logger.Info().Int("cleared", stats.Cleared).Msg("cache flushed")
		return stats
	}
	return e.cache.purgeExpired()
}

// InvalidateUser drops only the given user's cached results.
func (e *Engine) InvalidateUser(userID string) CacheStats {
	return e.cache.invalidateUser(userID)
}

// RecordInteractions indexes fresh interactions into the matrix and drops
// the affected users' cached results, so a previously cold-start user
// stops seeing cold-start output as soon as their history lands.
func (e *Engine) RecordInteractions(interactions ...catalog.Interaction) {
	users := make(map[string]struct{}, len(interactions))
	for _, in := range interactions {
		e.matrix.Record(in)
		users[in.UserID] = struct{}{}
	}
	for userID := range users {
		e.cache.invalidateUser(userID)
	}
}

// CacheLen reports the number of live cache entries.
func (e *Engine) CacheLen() int {
	return e.cache.len()
}
