// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feyfry/recommender-system-sub000/internal/recommend"
)

func testSnapshot() Snapshot {
	return Snapshot{
		SavedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Weights: recommend.DefaultConfig().Weights,
		Performance: []recommend.ModelPerformanceRecord{
			{Provider: recommend.ProviderFECF, Precision: 0.62, Recall: 0.55, NDCG: 0.7, HitRatio: 0.8},
			{Provider: recommend.ProviderNCF, Precision: 0.48, Recall: 0.41, NDCG: 0.6, HitRatio: 0.7},
		},
		Artifacts: map[recommend.ProviderID]string{
			recommend.ProviderFECF: "/data/models/fecf.bin",
			recommend.ProviderNCF:  "/data/models/ncf.pt",
		},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	want := testSnapshot()
	require.NoError(t, store.Save("engine-state", want))
	require.True(t, store.Exists("engine-state"))

	got, err := store.Load("engine-state")
	require.NoError(t, err)
	assert.False(t, got.SavedAt.IsZero(), "save must stamp the snapshot")
	assert.Equal(t, want.Weights, got.Weights)
	assert.Equal(t, want.Performance, got.Performance)
	assert.Equal(t, want.Artifacts, got.Artifacts)
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.Exists("nothing"))
	_, err = store.Load("nothing")
	assert.Error(t, err)
}

func TestStore_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("engine-state", testSnapshot()))

	// Corrupt the payload without touching the recorded checksum.
	path := filepath.Join(dir, "engine-state.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	env.Payload = []byte(`{"weights":{"base_fecf":0.99}}`)
	corrupted, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, corrupted, 0o600))

	_, err = store.Load("engine-state")
	assert.Error(t, err, "tampered payload must fail verification")
}

func TestStore_SaveOverwrites(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first := testSnapshot()
	require.NoError(t, store.Save("engine-state", first))

	second := first
	second.Performance = second.Performance[:1]
	require.NoError(t, store.Save("engine-state", second))

	got, err := store.Load("engine-state")
	require.NoError(t, err)
	assert.Len(t, got.Performance, 1, "save must replace the previous snapshot")
}
