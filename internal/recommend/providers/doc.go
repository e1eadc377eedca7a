// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

// Package providers contains provider-side plumbing for the engine: a
// circuit-breaker decorator that shields the request path from a failing
// scoring provider, and a trend-score baseline provider backed by the
// catalog.
//
// The external FECF and NCF scoring models are out of process; this
// package only wraps and stands in for them.
package providers
