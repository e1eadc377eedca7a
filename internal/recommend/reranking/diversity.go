// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package reranking

import (
	"context"
	"math"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
	"github.com/feyfry/recommender-system-sub000/internal/recommend"
)

// maxRerankSize limits slice allocations to prevent excessive memory usage.
const maxRerankSize = 10000

// ProjectSource supplies catalog metadata for candidates.
type ProjectSource interface {
	Snapshot() *catalog.Snapshot
}

// Quota implements diversity reranking with soft per-category, per-chain,
// and market-cap tier quotas.
//
// Selection works on an adjusted score: the original ensemble score plus a
// weighted diversity adjustment. Categories and chains appearing for the
// first time are rewarded, dimensions already at quota are penalized, and
// under-filled market-cap tiers are nudged up. The adjustment only guides
// which item is picked next; the reported score is always the original.
type Quota struct {
	cfg  recommend.DiversityConfig
	meta ProjectSource
}

// NewQuota creates a quota-based diversity reranker.
func NewQuota(cfg recommend.DiversityConfig, meta ProjectSource) *Quota {
	return &Quota{cfg: cfg, meta: meta}
}

// Name returns the reranker identifier.
func (q *Quota) Name() string {
	return "quota"
}

// selectionState tracks quota counters during greedy selection.
type selectionState struct {
	perCategory map[string]int
	perChain    map[string]int
	perTier     map[catalog.MarketCapTier]int

	maxPerCategory int
	maxPerChain    int
	tierTarget     map[catalog.MarketCapTier]int

	catFrequency map[string]int
}

// Rerank selects up to n items from the combined ranking. The top quartile
// of the target size is taken unconditionally to protect head relevance;
// the remainder is filled greedily by adjusted score.
func (q *Quota) Rerank(ctx context.Context, items []recommend.ScoredProject, n int, diversityWeight float64) []recommend.ScoredProject {
	if len(items) == 0 || n <= 0 {
		return nil
	}
	if n > maxRerankSize {
		n = maxRerankSize
	}
	if n > len(items) {
		n = len(items)
	}

	snap := q.meta.Snapshot()
	st := q.newState(items, n, snap)

	head := n / 4
	if head < 1 {
		head = 1
	}

	result := make([]recommend.ScoredProject, 0, n)
	remaining := make([]recommend.ScoredProject, 0, len(items)-head)

	for i, item := range items {
		if i < head {
			result = append(result, item)
			st.count(project(snap, item.ProjectID))
		} else {
			remaining = append(remaining, item)
		}
	}

	for len(result) < n && len(remaining) > 0 {
		if ctx.Err() != nil {
			break
		}
		idx := q.pickNext(remaining, st, snap, diversityWeight)
		picked := remaining[idx]
		result = append(result, picked)
		st.count(project(snap, picked.ProjectID))
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	return result
}

// newState initializes quota bounds and candidate category frequencies.
func (q *Quota) newState(items []recommend.ScoredProject, n int, snap *catalog.Snapshot) *selectionState {
	st := &selectionState{
		perCategory:    make(map[string]int),
		perChain:       make(map[string]int),
		perTier:        make(map[catalog.MarketCapTier]int),
		maxPerCategory: maxInt(2, int(math.Round(q.cfg.CategoryShare*float64(n)))),
		maxPerChain:    maxInt(3, int(math.Round(q.cfg.ChainShare*float64(n)))),
		tierTarget: map[catalog.MarketCapTier]int{
			catalog.TierHigh:   int(math.Round(0.3 * float64(n))),
			catalog.TierMedium: int(math.Round(0.4 * float64(n))),
			catalog.TierLow:    int(math.Round(0.3 * float64(n))),
		},
		catFrequency: make(map[string]int),
	}

	for _, item := range items {
		p := project(snap, item.ProjectID)
		for _, cat := range p.Categories {
			st.catFrequency[cat]++
		}
	}
	return st
}

// pickNext returns the index of the best remaining candidate. Candidates
// that would push a category or chain past quota are held back as long as
// an unblocked alternative exists, so quotas only yield when the pool
// cannot fill the result otherwise.
func (q *Quota) pickNext(remaining []recommend.ScoredProject, st *selectionState, snap *catalog.Snapshot, diversityWeight float64) int {
	bestIdx, bestScore := -1, math.Inf(-1)
	bestBlockedIdx, bestBlockedScore := -1, math.Inf(-1)

	for i, item := range remaining {
		p := project(snap, item.ProjectID)
		adjusted := item.Score + q.adjustment(p, st)*diversityWeight

		if st.blocked(p) {
			if adjusted > bestBlockedScore {
				bestBlockedScore = adjusted
				bestBlockedIdx = i
			}
			continue
		}
		if adjusted > bestScore {
			bestScore = adjusted
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		return bestIdx
	}
	return bestBlockedIdx
}

// adjustment computes the weighted diversity adjustment for a candidate.
func (q *Quota) adjustment(p catalog.Project, st *selectionState) float64 {
	return q.cfg.CategoryTermWeight*st.categoryTerm(p) +
		q.cfg.ChainTermWeight*st.chainTerm(p) +
		q.cfg.TierTermWeight*st.tierTerm(p)
}

// categoryTerm rewards first appearances (scaled by inverse candidate
// frequency, so rare categories earn more) and penalizes categories at
// quota. Averaged over the candidate's categories.
func (st *selectionState) categoryTerm(p catalog.Project) float64 {
	if len(p.Categories) == 0 {
		return 0
	}
	sum := 0.0
	for _, cat := range p.Categories {
		switch {
		case st.perCategory[cat] == 0:
			if f := st.catFrequency[cat]; f > 0 {
				sum += 1.0 / float64(f)
			}
		case st.perCategory[cat] >= st.maxPerCategory:
			sum -= 0.5
		}
	}
	return sum / float64(len(p.Categories))
}

// chainTerm rewards the first appearance of a chain and penalizes chains
// at quota.
func (st *selectionState) chainTerm(p catalog.Project) float64 {
	if p.Chain == "" {
		return 0
	}
	switch {
	case st.perChain[p.Chain] == 0:
		return 0.25
	case st.perChain[p.Chain] >= st.maxPerChain:
		return -0.4
	default:
		return 0
	}
}

// tierTerm rewards under-filled market-cap tiers and penalizes over-filled
// ones in proportion to the overfill.
func (st *selectionState) tierTerm(p catalog.Project) float64 {
	if p.Tier == catalog.TierUnknown {
		return 0
	}
	target := st.tierTarget[p.Tier]
	count := st.perTier[p.Tier]
	switch {
	case count < target:
		return 0.15
	case count > target:
		return -0.15 * float64(count-target) / math.Max(float64(target), 1)
	default:
		return 0
	}
}

// blocked reports whether selecting the candidate would push any of its
// categories or its chain past quota.
func (st *selectionState) blocked(p catalog.Project) bool {
	for _, cat := range p.Categories {
		if st.perCategory[cat] >= st.maxPerCategory {
			return true
		}
	}
	if p.Chain != "" && st.perChain[p.Chain] >= st.maxPerChain {
		return true
	}
	return false
}

// count updates quota counters after a selection.
func (st *selectionState) count(p catalog.Project) {
	for _, cat := range p.Categories {
		st.perCategory[cat]++
	}
	if p.Chain != "" {
		st.perChain[p.Chain]++
	}
	if p.Tier != catalog.TierUnknown {
		st.perTier[p.Tier]++
	}
}

// project resolves catalog metadata, defaulting to an empty record for
// projects missing from the snapshot.
func project(snap *catalog.Snapshot, id string) catalog.Project {
	if snap == nil {
		return catalog.Project{ID: id}
	}
	p, ok := snap.Project(id)
	if !ok {
		return catalog.Project{ID: id}
	}
	return p
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Ensure Quota implements the interface.
var _ recommend.Reranker = (*Quota)(nil)
