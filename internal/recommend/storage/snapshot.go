// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

// Package storage persists the ensemble layer's model snapshot: the
// weight configuration, the provider performance records, and references
// to the two provider model artifacts. This snapshot is what "save/load
// model" means at this layer; the provider artifacts themselves are
// owned by the external training pipelines.
//
// Snapshots are JSON with a SHA-256 checksum over the payload, written
// atomically via a temp file and rename. Loading verifies the checksum
// before unmarshaling, and a round-trip reproduces the weights exactly.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/feyfry/recommender-system-sub000/internal/recommend"
)

// Snapshot is the persisted state of the ensemble layer.
type Snapshot struct {
	// SavedAt is when the snapshot was written.
	SavedAt time.Time `json:"saved_at"`

	// Weights is the engine's weight calculator configuration.
	Weights recommend.WeightsConfig `json:"weights"`

	// Performance holds the latest provider performance records.
	Performance []recommend.ModelPerformanceRecord `json:"performance"`

	// Artifacts maps provider IDs to their model artifact paths.
	Artifacts map[recommend.ProviderID]string `json:"artifacts"`
}

// envelope wraps the snapshot payload with its integrity checksum.
type envelope struct {
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// Store reads and writes snapshots under a base directory.
// Safe for concurrent use; writes are serialized.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the snapshot atomically.
func (s *Store) Save(name string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.SavedAt = time.Now().UTC()
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	sum := sha256.Sum256(payload)
	data, err := json.Marshal(envelope{
		Checksum: hex.EncodeToString(sum[:]),
		Payload:  payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	final := s.path(name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads and verifies a snapshot.
func (s *Store) Load(name string) (Snapshot, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot envelope: %w", err)
	}

	sum := sha256.Sum256(env.Payload)
	if hex.EncodeToString(sum[:]) != env.Checksum {
		return Snapshot{}, fmt.Errorf("snapshot %q checksum mismatch", name)
	}

	var snap Snapshot
	if err := json.Unmarshal(env.Payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot payload: %w", err)
	}
	return snap, nil
}

// Exists reports whether a snapshot with the given name is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
