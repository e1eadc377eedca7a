// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package providers

import (
	"context"
	"testing"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
	"github.com/feyfry/recommender-system-sub000/internal/recommend"
)

func trendingCatalog() *catalog.Store {
	return catalog.NewStore(catalog.NewSnapshot([]catalog.Project{
		{ID: "bitcoin", Categories: []string{"layer-1"}, Chain: "bitcoin", MarketCap: 900e9, TrendScore: 95},
		{ID: "ethereum", Categories: []string{"layer-1"}, Chain: "ethereum", MarketCap: 400e9, TrendScore: 90},
		{ID: "uniswap", Categories: []string{"defi"}, Chain: "ethereum", MarketCap: 6e9, TrendScore: 75},
		{ID: "aave", Categories: []string{"defi"}, Chain: "ethereum", MarketCap: 4e9, TrendScore: 72},
		{ID: "pepe", Categories: []string{"meme"}, Chain: "ethereum", MarketCap: 3e9, TrendScore: 80},
	}))
}

func TestTrending_RecommendForUser(t *testing.T) {
	p := NewTrending(recommend.ProviderFECF, trendingCatalog())

	scores, err := p.RecommendForUser(context.Background(), "anyone", 3, false)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	want := []string{"bitcoin", "ethereum", "pepe"}
	if len(scores) != len(want) {
		t.Fatalf("got %d scores, want %d", len(scores), len(want))
	}
	for i, id := range want {
		if scores[i].ProjectID != id {
			t.Errorf("scores[%d] = %s, want %s (trend order)", i, scores[i].ProjectID, id)
		}
	}
	if !p.IsTrained() {
		t.Error("baseline provider must always report trained")
	}
}

func TestTrending_ColdStartInterests(t *testing.T) {
	p := NewTrending(recommend.ProviderFECF, trendingCatalog())

	scores, err := p.ColdStartRecommendations(context.Background(), []string{"defi"}, 3)
	if err != nil {
		t.Fatalf("ColdStartRecommendations() error = %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("got %d scores, want 3", len(scores))
	}
	// Interest matches lead, trend ranking backfills.
	if scores[0].ProjectID != "uniswap" || scores[1].ProjectID != "aave" {
		t.Errorf("interest matches = %s, %s; want uniswap, aave first", scores[0].ProjectID, scores[1].ProjectID)
	}
}

func TestTrending_ColdStartNoInterests(t *testing.T) {
	p := NewTrending(recommend.ProviderNCF, trendingCatalog())

	scores, err := p.ColdStartRecommendations(context.Background(), nil, 2)
	if err != nil {
		t.Fatalf("ColdStartRecommendations() error = %v", err)
	}
	if len(scores) != 2 || scores[0].ProjectID != "bitcoin" {
		t.Errorf("scores = %v, want top trending", scores)
	}
}
