// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// EnsembleMethod selects the combination rule.
type EnsembleMethod int

const (
	// MethodSelective applies the agreement/disagreement logic. The
	// regular path reaches it through CombineSelective, which adds the
	// raw-batch confidence gate.
	MethodSelective EnsembleMethod = iota

	// MethodSimpleBlend is a plain weighted sum, used on the cold-start
	// path where one provider dominates by construction.
	MethodSimpleBlend
)

// Combiner merges the two providers' normalized candidate lists into one
// descending ranking. Combination is deterministic: identical inputs
// always produce the identical ordering (ties break on project ID).
type Combiner struct {
	cfg    EnsembleConfig
	logger zerolog.Logger
}

// NewCombiner creates an ensemble combiner.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCombiner(cfg EnsembleConfig, logger zerolog.Logger) *Combiner {
	return &Combiner{
		cfg:    cfg,
		logger: logger.With().Str("component", "ensemble").Logger(),
	}
}

// CombineSelective applies the confidence gate on the raw batches, then
// merges the normalized lists. A provider whose raw batch is both low and
// flat carries no ranking signal and is dropped entirely; the survivor's
// normalized scores pass through unchanged. The gate must read raw scores:
// percentile normalization stretches any near-flat batch across [0, 1],
// so flatness is only visible before it runs.
func (c *Combiner) CombineSelective(rawFECF, rawNCF []CandidateScore, fecf, ncf []NormalizedScore, w EnsembleWeights) []ScoredProject {
	if c.degenerate(rawNCF) && !c.degenerate(rawFECF) {
		c.logger.Debug().Str("dropped", string(ProviderNCF)).Msg("degenerate provider batch discarded")
		return singleSource(fecf, ProviderFECF)
	}
	if c.degenerate(rawFECF) && !c.degenerate(rawNCF) {
		c.logger.Debug().Str("dropped", string(ProviderFECF)).Msg("degenerate provider batch discarded")
		return singleSource(ncf, ProviderNCF)
	}
	return c.Combine(fecf, ncf, w, MethodSelective)
}

// Combine merges the FECF and NCF lists under the given weights.
func (c *Combiner) Combine(fecf, ncf []NormalizedScore, w EnsembleWeights, method EnsembleMethod) []ScoredProject {
	byID := make(map[string]*ScoredProject, len(fecf)+len(ncf))
	fecfScores := make(map[string]float64, len(fecf))
	for _, s := range fecf {
		fecfScores[s.ProjectID] = s.Score
	}
	ncfScores := make(map[string]float64, len(ncf))
	for _, s := range ncf {
		ncfScores[s.ProjectID] = s.Score
	}

	for id, a := range fecfScores {
		b, both := ncfScores[id]
		sp := &ScoredProject{ProjectID: id}
		if both {
			sp.Sources = []ProviderID{ProviderFECF, ProviderNCF}
			sp.Score = c.combinePair(a, b, w, method)
		} else {
			sp.Sources = []ProviderID{ProviderFECF}
			sp.Score = c.combineSingle(a, ProviderFECF, w, method)
		}
		byID[id] = sp
	}
	for id, b := range ncfScores {
		if _, seen := byID[id]; seen {
			continue
		}
		byID[id] = &ScoredProject{
			ProjectID: id,
			Score:     c.combineSingle(b, ProviderNCF, w, method),
			Sources:   []ProviderID{ProviderNCF},
		}
	}

	out := make([]ScoredProject, 0, len(byID))
	for _, sp := range byID {
		if sp.Score > 1 {
			sp.Score = 1
		}
		out = append(out, *sp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProjectID < out[j].ProjectID
	})
	return out
}

// combinePair merges scores for a project both providers returned.
func (c *Combiner) combinePair(a, b float64, w EnsembleWeights, method EnsembleMethod) float64 {
	if method == MethodSimpleBlend {
		return a*w.FECF + b*w.NCF
	}

	diff := a - b
	if diff < 0 {
		diff = -diff
	}

	if diff < c.cfg.AgreementDelta {
		s := (a*w.FECF + b*w.NCF) * c.cfg.AgreementBonus
		if s > 1 {
			s = 1
		}
		return s
	}

	// Disagreement: trust the higher scorer. The split is asymmetric
	// because the FECF model is the higher-precision default.
	if a > b {
		return 0.9*a + 0.1*b
	}
	return 0.7*b + 0.3*a
}

// combineSingle scores a project only one provider returned.
func (c *Combiner) combineSingle(s float64, p ProviderID, w EnsembleWeights, method EnsembleMethod) float64 {
	if method == MethodSimpleBlend {
		if p == ProviderFECF {
			return s * w.FECF
		}
		return s * w.NCF
	}
	if p == ProviderFECF {
		return s * c.cfg.FECFOnlyPenalty
	}
	return s * c.cfg.NCFOnlyPenalty
}

// degenerate reports whether a raw batch is too flat to be informative.
func (c *Combiner) degenerate(batch []CandidateScore) bool {
	if len(batch) == 0 {
		return false
	}
	scores := make([]float64, len(batch))
	for i, s := range batch {
		scores[i] = s.Score
	}
	mean, std := stat.MeanStdDev(scores, nil)
	if len(scores) == 1 {
		std = 0
	}
	return mean <= c.cfg.ConfidenceFloor && std <= c.cfg.FlatStdDev
}

// singleSource converts one provider's normalized list straight into the
// combined form, scores unchanged.
func singleSource(batch []NormalizedScore, p ProviderID) []ScoredProject {
	out := make([]ScoredProject, len(batch))
	for i, s := range batch {
		out[i] = ScoredProject{
			ProjectID: s.ProjectID,
			Score:     s.Score,
			Sources:   []ProviderID{p},
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProjectID < out[j].ProjectID
	})
	return out
}
