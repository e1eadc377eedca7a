// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package catalog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// RecencyClass buckets users by how established their history is.
type RecencyClass int

const (
	// RecencyNew marks users with little recorded history.
	RecencyNew RecencyClass = iota
	// RecencyRegular marks users with a moderate history.
	RecencyRegular
	// RecencyEstablished marks long-standing, active users.
	RecencyEstablished
)

// String returns a human-readable class name.
func (r RecencyClass) String() string {
	switch r {
	case RecencyNew:
		return "new"
	case RecencyRegular:
		return "regular"
	case RecencyEstablished:
		return "established"
	default:
		return "unknown"
	}
}

// Interaction is a single recorded user-project interaction.
type Interaction struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// ProjectID identifies the project.
	ProjectID string `json:"project_id"`

	// Weight is the interaction strength. Only positive weights count
	// toward the matrix.
	Weight float64 `json:"weight"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// UserContext is a per-request view of a user derived from the matrix.
// It is never persisted; lifetime is one request.
type UserContext struct {
	UserID string

	// InMatrix reports whether the user exists in the interaction matrix.
	// This is the sole cold-start criterion.
	InMatrix bool

	// InteractionCount is the number of positive interactions recorded.
	InteractionCount int

	// Recency classifies how established the user's history is.
	Recency RecencyClass

	// CategoryFocus is 1.0 for a user whose history concentrates on a
	// single category, approaching 0 for broad interests.
	CategoryFocus float64

	// ChainDiversity is the fraction of distinct chains across the
	// user's interacted projects.
	ChainDiversity float64

	// ExplorationRate estimates the user's appetite for discovery.
	ExplorationRate float64

	// HasRecentActivity reports out-of-band activity newer than the
	// matrix. Informational only: it never changes cold-start handling.
	HasRecentActivity bool
}

// userRow holds one user's per-project interaction counts.
type userRow struct {
	counts map[string]int
	total  int
}

// InteractionMatrix is the trained user-item interaction matrix.
// Safe for concurrent use; reads take a shared lock.
type InteractionMatrix struct {
	mu   sync.RWMutex
	rows map[string]*userRow
}

// NewInteractionMatrix builds a matrix from recorded interactions.
// Non-positive weights are ignored.
func NewInteractionMatrix(interactions []Interaction) *InteractionMatrix {
	m := &InteractionMatrix{rows: make(map[string]*userRow)}
	for _, in := range interactions {
		m.add(in)
	}
	return m
}

func (m *InteractionMatrix) add(in Interaction) {
	if in.Weight <= 0 || in.UserID == "" || in.ProjectID == "" {
		return
	}
	row, ok := m.rows[in.UserID]
	if !ok {
		row = &userRow{counts: make(map[string]int)}
		m.rows[in.UserID] = row
	}
	row.counts[in.ProjectID]++
	row.total++
}

// LoadInteractionsFile reads a JSON array of interactions from disk.
func LoadInteractionsFile(path string) ([]Interaction, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read interactions file: %w", err)
	}
	var out []Interaction
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse interactions file %s: %w", path, err)
	}
	return out, nil
}

// Record adds an interaction to the matrix. Used when fresh interactions
// are indexed; the caller is responsible for invalidating cached results.
func (m *InteractionMatrix) Record(in Interaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(in)
}

// Contains reports whether the user exists in the matrix.
func (m *InteractionMatrix) Contains(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rows[userID]
	return ok
}

// InteractionCount returns the user's positive interaction count.
func (m *InteractionMatrix) InteractionCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[userID]
	if !ok {
		return 0
	}
	return row.total
}

// UserHistory returns the project IDs the user has interacted with.
func (m *InteractionMatrix) UserHistory(userID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[userID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(row.counts))
	for id := range row.counts {
		out = append(out, id)
	}
	return out
}

// UserCount returns the number of users in the matrix.
func (m *InteractionMatrix) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// UserContext derives the per-request user view from the matrix and a
// catalog snapshot. A user absent from the matrix yields a cold-start
// context regardless of any other signal.
func (m *InteractionMatrix) UserContext(userID string, snap *Snapshot) UserContext {
	m.mu.RLock()
	row, ok := m.rows[userID]
	if !ok {
		m.mu.RUnlock()
		return UserContext{
			UserID:          userID,
			InMatrix:        false,
			Recency:         RecencyNew,
			ExplorationRate: 1.0, // no signal, maximize discovery
		}
	}

	// Copy counts under lock; derivation below only reads the snapshot.
	counts := make(map[string]int, len(row.counts))
	for id, c := range row.counts {
		counts[id] = c
	}
	total := row.total
	m.mu.RUnlock()

	focus := categoryFocus(counts, snap)
	diversity := chainDiversity(counts, snap)

	return UserContext{
		UserID:           userID,
		InMatrix:         true,
		InteractionCount: total,
		Recency:          recencyFor(total),
		CategoryFocus:    focus,
		ChainDiversity:   diversity,
		ExplorationRate:  clamp01(0.5*(1-focus) + 0.5*diversity),
	}
}

// recencyFor classifies a user by interaction volume.
func recencyFor(count int) RecencyClass {
	switch {
	case count < 10:
		return RecencyNew
	case count < 40:
		return RecencyRegular
	default:
		return RecencyEstablished
	}
}

// categoryFocus computes the weighted share of the user's dominant category.
func categoryFocus(counts map[string]int, snap *Snapshot) float64 {
	if snap == nil {
		return 0
	}
	catWeight := make(map[string]int)
	tagged := 0
	for id, c := range counts {
		p, ok := snap.Project(id)
		if !ok || len(p.Categories) == 0 {
			continue
		}
		tagged += c
		for _, cat := range p.Categories {
			catWeight[cat] += c
		}
	}
	if tagged == 0 {
		return 0
	}
	top := 0
	for _, w := range catWeight {
		if w > top {
			top = w
		}
	}
	return clamp01(float64(top) / float64(tagged))
}

// chainDiversity computes distinct chains over interacted projects.
func chainDiversity(counts map[string]int, snap *Snapshot) float64 {
	if snap == nil || len(counts) == 0 {
		return 0
	}
	chains := make(map[string]struct{})
	known := 0
	for id := range counts {
		p, ok := snap.Project(id)
		if !ok || p.Chain == "" {
			continue
		}
		known++
		chains[p.Chain] = struct{}{}
	}
	if known == 0 {
		return 0
	}
	return clamp01(float64(len(chains)) / float64(known))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
