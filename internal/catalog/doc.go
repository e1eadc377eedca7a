// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

// Package catalog provides the read-mostly project catalog and the user-item
// interaction matrix that the recommendation layer consumes.
//
// # Catalog Snapshots
//
// Project metadata (categories, chain, market cap, trend score) is loaded once
// into an immutable Snapshot. Reloading a snapshot is an atomic pointer swap:
// readers never observe a partially-loaded catalog and are never blocked by a
// reload in progress.
//
// Market-cap tiers are derived at load time from the 90th and 50th percentile
// of market caps across the snapshot, so a project's tier is stable for the
// lifetime of the snapshot.
//
// # Interaction Matrix
//
// The interaction matrix records positive user-item interactions and is the
// single source of truth for cold-start classification: a user is cold-start
// iff they are absent from the matrix. Auxiliary recency signals never change
// that classification.
//
// UserContext values are derived on demand from the matrix and a catalog
// snapshot; they live for one request and are never persisted.
package catalog
