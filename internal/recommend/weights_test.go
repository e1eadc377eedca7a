// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"math"
	"testing"

	"github.com/feyfry/recommender-system-sub000/internal/catalog"
)

func userWithCount(count int) catalog.UserContext {
	recency := catalog.RecencyEstablished
	switch {
	case count < 10:
		recency = catalog.RecencyNew
	case count < 40:
		recency = catalog.RecencyRegular
	}
	return catalog.UserContext{
		UserID:           "u1",
		InMatrix:         true,
		InteractionCount: count,
		Recency:          recency,
		ExplorationRate:  0.5,
	}
}

func TestWeightCalculator_Banding(t *testing.T) {
	calc := NewWeightCalculator(DefaultConfig().Weights, testLogger())

	tests := []struct {
		name     string
		count    int
		wantFECF float64
	}{
		{"zero interactions", 0, 0.95},
		{"single interaction", 1, 0.95},
		{"just below low threshold", 9, 0.95},
		{"low band start", 10, 0.8},
		{"low band end", 19, 0.8},
		{"interpolation start", 20, 0.8},
		{"interpolation midpoint", 25, 0.65},
		{"interpolation near end", 29, 0.53},
		{"base band start", 30, 0.5},
		{"base band end", 50, 0.5},
		{"heavy band", 51, 0.45},
		{"heavy band end", 100, 0.45},
		{"power user", 101, 0.4},
		{"power user large", 500, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := calc.Weights(userWithCount(tt.count), nil)
			if math.Abs(w.FECF-tt.wantFECF) > 1e-9 {
				t.Errorf("FECF weight for %d interactions = %f, want %f", tt.count, w.FECF, tt.wantFECF)
			}
			if sum := w.FECF + w.NCF; math.Abs(sum-1) > 1e-9 {
				t.Errorf("FECF+NCF = %f, want exactly 1", sum)
			}
		})
	}
}

func TestWeightCalculator_DiversityBounds(t *testing.T) {
	calc := NewWeightCalculator(DefaultConfig().Weights, testLogger())

	for count := 0; count <= 200; count += 7 {
		for _, exploration := range []float64{0, 0.1, 0.2, 0.5, 0.7, 1} {
			user := userWithCount(count)
			user.ExplorationRate = exploration
			w := calc.Weights(user, nil)
			if w.Diversity < 0.1 || w.Diversity > 0.5 {
				t.Fatalf("diversity weight %f out of [0.1, 0.5] for count=%d exploration=%f",
					w.Diversity, count, exploration)
			}
		}
	}
}

func TestWeightCalculator_DiversityNudges(t *testing.T) {
	calc := NewWeightCalculator(DefaultConfig().Weights, testLogger())

	t.Run("explorer gets a bump", func(t *testing.T) {
		user := userWithCount(50)
		user.ExplorationRate = 0.8
		w := calc.Weights(user, nil)
		if math.Abs(w.Diversity-0.4) > 1e-9 {
			t.Errorf("explorer diversity = %f, want 0.4", w.Diversity)
		}
	})

	t.Run("new user gets a bump regardless of exploration", func(t *testing.T) {
		user := userWithCount(5)
		user.ExplorationRate = 0.5
		w := calc.Weights(user, nil)
		if math.Abs(w.Diversity-0.4) > 1e-9 {
			t.Errorf("new-user diversity = %f, want 0.4", w.Diversity)
		}
	})

	t.Run("focused user gets a reduction", func(t *testing.T) {
		user := userWithCount(50)
		user.ExplorationRate = 0.1
		w := calc.Weights(user, nil)
		if math.Abs(w.Diversity-0.25) > 1e-9 {
			t.Errorf("focused-user diversity = %f, want 0.25", w.Diversity)
		}
	})
}

func TestWeightCalculator_PerformanceCorrection(t *testing.T) {
	calc := NewWeightCalculator(DefaultConfig().Weights, testLogger())

	t.Run("missing records skip correction", func(t *testing.T) {
		perf := map[ProviderID]ModelPerformanceRecord{
			ProviderFECF: {Provider: ProviderFECF, Precision: 0.6, Recall: 0.6},
		}
		w := calc.Weights(userWithCount(40), perf)
		if math.Abs(w.FECF-0.5) > 1e-9 {
			t.Errorf("FECF = %f, want uncorrected 0.5 with a partial perf map", w.FECF)
		}
	})

	t.Run("undertrained NCF loses half its weight", func(t *testing.T) {
		perf := map[ProviderID]ModelPerformanceRecord{
			ProviderFECF: {Provider: ProviderFECF, Precision: 0.5, Recall: 0.5},
			ProviderNCF:  {Provider: ProviderNCF, Precision: 0.3, Recall: 0.3},
		}
		w := calc.Weights(userWithCount(40), perf)
		// Banded 0.5/0.5, NCF halved to 0.25, FECF boosted (0.5 >= 1.5*0.3)
		// to 0.6, then normalized: 0.6/0.85 and 0.25/0.85.
		if math.Abs(w.FECF-0.6/0.85) > 1e-9 {
			t.Errorf("FECF = %f, want %f", w.FECF, 0.6/0.85)
		}
		if sum := w.FECF + w.NCF; math.Abs(sum-1) > 1e-9 {
			t.Errorf("FECF+NCF = %f, want 1", sum)
		}
	})

	t.Run("dominant provider earns a capped boost", func(t *testing.T) {
		perf := map[ProviderID]ModelPerformanceRecord{
			ProviderFECF: {Provider: ProviderFECF, Precision: 0.6, Recall: 0.6},
			ProviderNCF:  {Provider: ProviderNCF, Precision: 0.4, Recall: 0.4},
		}
		w := calc.Weights(userWithCount(40), perf)
		// 0.6 >= 1.5*0.4: FECF boosted 0.5 -> 0.6, normalized 0.6/1.1.
		if math.Abs(w.FECF-0.6/1.1) > 1e-9 {
			t.Errorf("FECF = %f, want %f", w.FECF, 0.6/1.1)
		}
	})

	t.Run("boost is capped at 0.9 before normalization", func(t *testing.T) {
		perf := map[ProviderID]ModelPerformanceRecord{
			ProviderFECF: {Provider: ProviderFECF, Precision: 0.9, Recall: 0.9},
			ProviderNCF:  {Provider: ProviderNCF, Precision: 0.5, Recall: 0.5},
		}
		// Count 15 bands to 0.8; boosted 0.96 would exceed the cap.
		w := calc.Weights(userWithCount(15), perf)
		if math.Abs(w.FECF-0.9/1.1) > 1e-9 {
			t.Errorf("FECF = %f, want capped %f", w.FECF, 0.9/1.1)
		}
	})

	t.Run("comparable providers keep the banded split", func(t *testing.T) {
		perf := map[ProviderID]ModelPerformanceRecord{
			ProviderFECF: {Provider: ProviderFECF, Precision: 0.5, Recall: 0.5},
			ProviderNCF:  {Provider: ProviderNCF, Precision: 0.45, Recall: 0.45},
		}
		w := calc.Weights(userWithCount(40), perf)
		if math.Abs(w.FECF-0.5) > 1e-9 {
			t.Errorf("FECF = %f, want 0.5 with comparable accuracy", w.FECF)
		}
	})
}
