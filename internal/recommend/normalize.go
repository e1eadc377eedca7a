// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// NormalizeScores rescales one provider's raw batch onto [0, 1] using the
// batch's 10th and 90th percentile as bounds. Percentile clipping keeps a
// single outlier from compressing the rest of the batch the way a plain
// min-max scale would.
//
// A degenerate batch (all scores equal, or a single item) maps every score
// to a neutral 0.5. NaN and infinite raw scores are sanitized before the
// percentiles are computed and never propagate; the count of such scores
// is returned for logging.
func NormalizeScores(batch []CandidateScore) ([]NormalizedScore, int) {
	if len(batch) == 0 {
		return nil, 0
	}

	raw := make([]float64, len(batch))
	invalid := 0
	for i, c := range batch {
		v := c.Score
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
			invalid++
		}
		raw[i] = v
	}

	sorted := make([]float64, len(raw))
	copy(sorted, raw)
	sort.Float64s(sorted)

	p10 := stat.Quantile(0.1, stat.Empirical, sorted, nil)
	p90 := stat.Quantile(0.9, stat.Empirical, sorted, nil)

	out := make([]NormalizedScore, len(batch))
	if p90 == p10 {
		for i, c := range batch {
			out[i] = NormalizedScore{ProjectID: c.ProjectID, Score: 0.5}
		}
		return out, invalid
	}

	span := p90 - p10
	for i, c := range batch {
		s := (raw[i] - p10) / span
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		out[i] = NormalizedScore{ProjectID: c.ProjectID, Score: s}
	}
	return out, invalid
}
