// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

// Package reranking implements post-processing of combined rankings for
// composition diversity.
//
// The quota reranker reshapes the top of an ensemble ranking so the result
// does not collapse into near-duplicate projects: soft quotas bound how
// much of the list a single category or chain may fill, and market-cap
// tiers are steered toward a 30/40/30 high/medium/low mix.
//
// Two scores are in play during selection. A diversity-adjusted score
// decides selection order only; every selected item is reported with its
// original ensemble score, so score semantics are preserved for callers.
package reranking
