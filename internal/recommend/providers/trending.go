// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package providers

import (
	"context"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
	"github.com/feyfry/recommender-system-sub000/internal/recommend"
)

// Trending is a baseline provider that ranks projects purely by catalog
// trend score. It stands in when a real model artifact is missing and
// serves as a deterministic fixture in tests.
//
// As a baseline it is always "trained": the catalog snapshot is its model.
type Trending struct {
	id      recommend.ProviderID
	catalog *catalog.Store
}

// NewTrending creates a trend-score provider reporting the given ID.
func NewTrending(id recommend.ProviderID, cat *catalog.Store) *Trending {
	return &Trending{id: id, catalog: cat}
}

// Name returns the provider identifier.
func (t *Trending) Name() recommend.ProviderID {
	return t.id
}

// RecommendForUser returns the top trending projects. The baseline has no
// per-user signal; excludeKnown is honored by the engine's own filter.
func (t *Trending) RecommendForUser(ctx context.Context, userID string, n int, excludeKnown bool) ([]recommend.CandidateScore, error) {
	return t.top(ctx, n)
}

// ColdStartRecommendations returns the top trending projects, optionally
// preferring declared interest categories.
func (t *Trending) ColdStartRecommendations(ctx context.Context, interests []string, n int) ([]recommend.CandidateScore, error) {
	if len(interests) == 0 {
		return t.top(ctx, n)
	}

	wanted := make(map[string]struct{}, len(interests))
	for _, c := range interests {
		wanted[c] = struct{}{}
	}

	snap := t.catalog.Snapshot()
	matched := make([]recommend.CandidateScore, 0, n)
	rest := make([]recommend.CandidateScore, 0, n)
	for _, id := range snap.TopTrending(snap.Len()) {
		if len(matched) >= n {
			break
		}
		p, ok := snap.Project(id)
		if !ok {
			continue
		}
		cs := recommend.CandidateScore{ProjectID: id, Score: p.TrendScore}
		if hasAny(p.Categories, wanted) {
			matched = append(matched, cs)
		} else if len(rest) < n {
			rest = append(rest, cs)
		}
	}

	for _, cs := range rest {
		if len(matched) >= n {
			break
		}
		matched = append(matched, cs)
	}
	return matched, ctx.Err()
}

// IsTrained always reports true.
func (t *Trending) IsTrained() bool {
	return true
}

func (t *Trending) top(ctx context.Context, n int) ([]recommend.CandidateScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := t.catalog.Snapshot()
	out := make([]recommend.CandidateScore, 0, n)
	for _, id := range snap.TopTrending(n) {
		p, ok := snap.Project(id)
		if !ok {
			continue
		}
		out = append(out, recommend.CandidateScore{ProjectID: id, Score: p.TrendScore})
	}
	return out, nil
}

func hasAny(categories []string, wanted map[string]struct{}) bool {
	for _, c := range categories {
		if _, ok := wanted[c]; ok {
			return true
		}
	}
	return false
}

// Ensure Trending implements the interface.
var _ recommend.ScoringProvider = (*Trending)(nil)
