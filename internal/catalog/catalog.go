// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"
)

// MarketCapTier buckets projects by market capitalization percentile.
type MarketCapTier int

const (
	// TierUnknown is assigned when a project has no market cap data.
	TierUnknown MarketCapTier = iota
	// TierLow covers projects below the 50th percentile.
	TierLow
	// TierMedium covers projects between the 50th and 90th percentile.
	TierMedium
	// TierHigh covers projects at or above the 90th percentile.
	TierHigh
)

// String returns a human-readable tier name.
func (t MarketCapTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Project is the catalog metadata for a single crypto asset.
// Immutable once loaded into a Snapshot.
type Project struct {
	// ID is the unique project identifier (e.g., "bitcoin").
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name,omitempty"`

	// Categories is the parsed category tag list.
	Categories []string `json:"categories"`

	// Chain is the primary chain the project lives on.
	Chain string `json:"chain"`

	// MarketCap is the market capitalization in USD.
	MarketCap float64 `json:"market_cap"`

	// Tier is the market-cap tier, computed at snapshot load.
	Tier MarketCapTier `json:"-"`

	// TrendScore is the precomputed trend score in [0, 100].
	TrendScore float64 `json:"trend_score"`
}

// Snapshot is an immutable view of the project catalog.
type Snapshot struct {
	projects map[string]Project
	byTrend  []string // project IDs ordered by trend score descending
	loadedAt time.Time
}

// Project looks up a project by ID.
func (s *Snapshot) Project(id string) (Project, bool) {
	p, ok := s.projects[id]
	return p, ok
}

// Len returns the number of projects in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.projects)
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// TopTrending returns up to n project IDs ordered by trend score descending.
func (s *Snapshot) TopTrending(n int) []string {
	if n > len(s.byTrend) {
		n = len(s.byTrend)
	}
	out := make([]string, n)
	copy(out, s.byTrend[:n])
	return out
}

// NewSnapshot builds a snapshot from raw project records. Market-cap tiers
// are assigned from the 90th/50th percentile of caps in the batch, and the
// trend ordering is computed once.
func NewSnapshot(projects []Project) *Snapshot {
	p90, p50 := marketCapCutoffs(projects)

	byID := make(map[string]Project, len(projects))
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		p.Tier = tierFor(p.MarketCap, p90, p50)
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, b := byID[ids[i]], byID[ids[j]]
		if a.TrendScore != b.TrendScore {
			return a.TrendScore > b.TrendScore
		}
		return a.ID < b.ID
	})

	return &Snapshot{
		projects: byID,
		byTrend:  ids,
		loadedAt: time.Now(),
	}
}

// marketCapCutoffs computes the 90th and 50th percentile of market caps.
// Projects without market cap data are excluded from the distribution.
func marketCapCutoffs(projects []Project) (p90, p50 float64) {
	caps := make([]float64, 0, len(projects))
	for _, p := range projects {
		if p.MarketCap > 0 {
			caps = append(caps, p.MarketCap)
		}
	}
	if len(caps) == 0 {
		return 0, 0
	}
	sort.Float64s(caps)
	p90 = stat.Quantile(0.9, stat.Empirical, caps, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, caps, nil)
	return p90, p50
}

func tierFor(cap, p90, p50 float64) MarketCapTier {
	switch {
	case cap <= 0 || p90 <= 0:
		return TierUnknown
	case cap >= p90:
		return TierHigh
	case cap >= p50:
		return TierMedium
	default:
		return TierLow
	}
}

// Store holds the current catalog snapshot and supports atomic reloads.
// It is safe for concurrent use; readers are never blocked by a reload.
type Store struct {
	snap    atomic.Pointer[Snapshot]
	reloads atomic.Int64
}

// NewStore creates a store seeded with the given snapshot.
func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	if snap == nil {
		snap = NewSnapshot(nil)
	}
	s.snap.Store(snap)
	return s
}

// Snapshot returns the current catalog snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Reload swaps in a new snapshot. In-flight readers keep the snapshot they
// already hold.
func (s *Store) Reload(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.snap.Store(snap)
	s.reloads.Add(1)
}

// Reloads returns how many times the snapshot has been swapped.
func (s *Store) Reloads() int64 {
	return s.reloads.Load()
}

// rawProject is the on-disk project record. Categories arrive as free-form
// text in several historical encodings and are parsed into a typed list once.
type rawProject struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Categories string  `json:"categories"`
	Chain      string  `json:"chain"`
	MarketCap  float64 `json:"market_cap"`
	TrendScore float64 `json:"trend_score"`
}

// LoadFile reads a catalog JSON file and builds a snapshot.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var raw []rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	projects := make([]Project, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		projects = append(projects, Project{
			ID:         r.ID,
			Name:       r.Name,
			Categories: ParseCategories(r.Categories),
			Chain:      strings.ToLower(strings.TrimSpace(r.Chain)),
			MarketCap:  r.MarketCap,
			TrendScore: clampTrend(r.TrendScore),
		})
	}

	return NewSnapshot(projects), nil
}

func clampTrend(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ParseCategories converts a serialized category field into a clean list.
// It accepts JSON arrays (`["defi","layer-1"]`), python-style lists with
// single quotes (`['defi', 'layer-1']`), and plain comma-separated text.
// Entries are lowercased, trimmed, and deduplicated; order is preserved.
func ParseCategories(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parts []string
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			parts = arr
		} else {
			// Python repr: strip brackets and quote characters, split on commas.
			inner := raw[1 : len(raw)-1]
			parts = strings.Split(inner, ",")
		}
	} else {
		parts = strings.Split(raw, ",")
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
