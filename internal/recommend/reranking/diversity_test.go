// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package reranking

import (
	"context"
	"fmt"
	"testing"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
	"github.com/feyfry/recommender-system-sub000/internal/recommend"
)

// diverseCatalog spreads projects over many categories, chains, and caps so
// quotas are always satisfiable.
func diverseCatalog() *catalog.Store {
	categories := []string{"defi", "gaming", "meme", "nft", "oracle", "layer-1", "layer-2", "metaverse"}
	chains := []string{"ethereum", "solana", "bsc", "polygon", "arbitrum"}

	projects := make([]catalog.Project, 0, 40)
	for i := 0; i < 40; i++ {
		projects = append(projects, catalog.Project{
			ID:         fmt.Sprintf("p%02d", i),
			Categories: []string{categories[i%len(categories)]},
			Chain:      chains[i%len(chains)],
			MarketCap:  float64((i + 1)) * 1e8,
			TrendScore: float64(100 - i),
		})
	}
	return catalog.NewStore(catalog.NewSnapshot(projects))
}

// defiHeavyCatalog makes one category dominate the candidate pool.
func defiHeavyCatalog() *catalog.Store {
	projects := make([]catalog.Project, 0, 30)
	for i := 0; i < 20; i++ {
		projects = append(projects, catalog.Project{
			ID:         fmt.Sprintf("defi%02d", i),
			Categories: []string{"defi"},
			Chain:      "ethereum",
			MarketCap:  float64(i+1) * 1e8,
			TrendScore: float64(90 - i),
		})
	}
	others := []struct {
		cat   string
		chain string
	}{
		{"gaming", "solana"}, {"meme", "bsc"}, {"nft", "polygon"}, {"oracle", "arbitrum"},
		{"layer-1", "solana"}, {"layer-2", "bsc"}, {"metaverse", "polygon"}, {"privacy", "arbitrum"},
		{"storage", "solana"}, {"ai", "bsc"},
	}
	for i, o := range others {
		projects = append(projects, catalog.Project{
			ID:         fmt.Sprintf("other%02d", i),
			Categories: []string{o.cat},
			Chain:      o.chain,
			MarketCap:  float64(i+1) * 2e8,
			TrendScore: float64(50 - i),
		})
	}
	return catalog.NewStore(catalog.NewSnapshot(projects))
}

func poolFor(store *catalog.Store, size int) []recommend.ScoredProject {
	snap := store.Snapshot()
	ids := snap.TopTrending(size)
	pool := make([]recommend.ScoredProject, len(ids))
	for i, id := range ids {
		pool[i] = recommend.ScoredProject{
			ProjectID: id,
			Score:     1 - float64(i)*0.01,
			Sources:   []recommend.ProviderID{recommend.ProviderFECF},
		}
	}
	return pool
}

func defaultQuota(store *catalog.Store) *Quota {
	return NewQuota(recommend.DefaultConfig().Diversity, store)
}

func TestQuota_Rerank_Size(t *testing.T) {
	store := diverseCatalog()
	q := defaultQuota(store)

	tests := []struct {
		name string
		pool int
		n    int
		want int
	}{
		{"pool larger than n", 30, 10, 10},
		{"pool smaller than n", 5, 10, 5},
		{"n one", 30, 1, 1},
		{"empty pool", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := q.Rerank(context.Background(), poolFor(store, tt.pool), tt.n, 0.3)
			if len(out) != tt.want {
				t.Errorf("Rerank returned %d items, want %d", len(out), tt.want)
			}
		})
	}
}

func TestQuota_Rerank_OriginalScoresReported(t *testing.T) {
	store := diverseCatalog()
	q := defaultQuota(store)

	pool := poolFor(store, 30)
	byID := make(map[string]float64, len(pool))
	for _, sp := range pool {
		byID[sp.ProjectID] = sp.Score
	}

	out := q.Rerank(context.Background(), pool, 12, 0.5)
	for _, sp := range out {
		if sp.Score != byID[sp.ProjectID] {
			t.Errorf("item %s reported score %f, want original %f; adjustments must only steer selection",
				sp.ProjectID, sp.Score, byID[sp.ProjectID])
		}
	}
}

func TestQuota_Rerank_HeadPreserved(t *testing.T) {
	store := diverseCatalog()
	q := defaultQuota(store)

	pool := poolFor(store, 30)
	out := q.Rerank(context.Background(), pool, 12, 0.5)

	// The top quartile is taken unconditionally in original order.
	for i := 0; i < 3; i++ {
		if out[i].ProjectID != pool[i].ProjectID {
			t.Errorf("head position %d = %s, want %s", i, out[i].ProjectID, pool[i].ProjectID)
		}
	}
}

func TestQuota_Rerank_CategoryQuota(t *testing.T) {
	store := defiHeavyCatalog()
	q := defaultQuota(store)
	snap := store.Snapshot()

	n := 8
	out := q.Rerank(context.Background(), poolFor(store, 30), n, 0.4)
	if len(out) != n {
		t.Fatalf("got %d items, want %d", len(out), n)
	}

	// max_per_category = max(2, round(0.25*8)) = 2, counting head picks.
	maxPerCategory := 2
	counts := make(map[string]int)
	for _, sp := range out {
		p, _ := snap.Project(sp.ProjectID)
		for _, cat := range p.Categories {
			counts[cat]++
		}
	}
	for cat, count := range counts {
		if count > maxPerCategory {
			t.Errorf("category %s filled %d of %d slots, quota is %d", cat, count, n, maxPerCategory)
		}
	}
}

func TestQuota_Rerank_ChainQuota(t *testing.T) {
	store := defiHeavyCatalog()
	q := defaultQuota(store)
	snap := store.Snapshot()

	n := 9
	out := q.Rerank(context.Background(), poolFor(store, 30), n, 0.4)

	// max_per_chain = max(3, round(0.33*9)) = 3.
	maxPerChain := 3
	counts := make(map[string]int)
	for _, sp := range out {
		p, _ := snap.Project(sp.ProjectID)
		counts[p.Chain]++
	}
	for chain, count := range counts {
		if count > maxPerChain {
			t.Errorf("chain %s filled %d of %d slots, quota is %d", chain, count, n, maxPerChain)
		}
	}
}

func TestQuota_Rerank_QuotaYieldsWhenPoolCannotFill(t *testing.T) {
	// Every candidate shares one category and chain: quotas cannot hold
	// and must yield rather than truncate the result.
	projects := make([]catalog.Project, 0, 12)
	for i := 0; i < 12; i++ {
		projects = append(projects, catalog.Project{
			ID:         fmt.Sprintf("defi%02d", i),
			Categories: []string{"defi"},
			Chain:      "ethereum",
			MarketCap:  float64(i+1) * 1e8,
			TrendScore: float64(90 - i),
		})
	}
	store := catalog.NewStore(catalog.NewSnapshot(projects))
	q := defaultQuota(store)

	out := q.Rerank(context.Background(), poolFor(store, 12), 8, 0.4)
	if len(out) != 8 {
		t.Errorf("got %d items from a single-category pool, want 8; quotas must yield to fill the result", len(out))
	}
}

func TestQuota_Rerank_UnknownProjects(t *testing.T) {
	// Candidates missing from the snapshot still flow through untagged.
	store := catalog.NewStore(catalog.NewSnapshot(nil))
	q := defaultQuota(store)

	pool := []recommend.ScoredProject{
		{ProjectID: "ghost1", Score: 0.9},
		{ProjectID: "ghost2", Score: 0.8},
		{ProjectID: "ghost3", Score: 0.7},
	}
	out := q.Rerank(context.Background(), pool, 3, 0.4)
	if len(out) != 3 {
		t.Errorf("got %d items, want all 3 unknown candidates", len(out))
	}
}
