// Copyright 2025 The tankwatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"testing"
	"time"
)

func TestStorageSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, "acme", NewLogger(false))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer storage.Close()

	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	calendar := BuildFleetCalendar([]RefillPrediction{
		{AssetID: "tank-1", CustomerID: "acme", Urgency: UrgencyNormal},
	}, now)

	if err := storage.SaveFleetSnapshot(calendar, "acme"); err != nil {
		t.Fatalf("SaveFleetSnapshot failed: %v", err)
	}

	loaded, err := storage.LoadLatestSnapshot("acme")
	if err != nil {
		t.Fatalf("LoadLatestSnapshot failed: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected a snapshot back")
	}
	if len(loaded.Predictions) != 1 || loaded.Predictions[0].AssetID != "tank-1" {
		t.Errorf("snapshot content mismatch: %+v", loaded)
	}
}

func TestStorageLoadLatestPicksNewest(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, "acme", NewLogger(false))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer storage.Close()

	older := BuildFleetCalendar(nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	newer := BuildFleetCalendar([]RefillPrediction{{AssetID: "tank-2"}},
		time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	if err := storage.SaveFleetSnapshot(older, "acme"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := storage.SaveFleetSnapshot(newer, "acme"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := storage.LoadLatestSnapshot("acme")
	if err != nil {
		t.Fatalf("LoadLatestSnapshot failed: %v", err)
	}
	if len(loaded.Predictions) != 1 {
		t.Errorf("expected the newer snapshot, got %+v", loaded)
	}
}

func TestStorageNoSnapshotIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, "acme", NewLogger(false))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer storage.Close()

	loaded, err := storage.LoadLatestSnapshot("acme")
	if err != nil {
		t.Errorf("missing snapshot should not error: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil for no snapshots, got %+v", loaded)
	}
}

func TestCacheSetGetExpiry(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir, "acme", NewLogger(false))
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	defer cache.Close()

	type payload struct {
		Value int `json:"value"`
	}

	if err := cache.Set("fresh", payload{Value: 42}, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Set("stale", payload{Value: 7}, -time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	found, err := cache.Get("fresh", &got)
	if err != nil || !found {
		t.Fatalf("expected a fresh hit, found=%v err=%v", found, err)
	}
	if got.Value != 42 {
		t.Errorf("cache value mismatch: %d", got.Value)
	}

	found, err = cache.Get("stale", &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Errorf("expired entries must miss")
	}

	if found, _ := cache.Get("never-set", &got); found {
		t.Errorf("unknown keys must miss")
	}
}

func TestCachePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(false)

	cache, err := NewCache(dir, "acme", logger)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	if err := cache.Set("key", "value", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewCache(dir, "acme", logger)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	var got string
	found, err := reopened.Get("key", &got)
	if err != nil || !found || got != "value" {
		t.Errorf("cache did not survive reopen: found=%v got=%q err=%v", found, got, err)
	}

	// Scopes are isolated
	other, err := NewCache(dir, "globex", logger)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	defer other.Close()
	if found, _ := other.Get("key", &got); found {
		t.Errorf("scopes must not share entries")
	}
}
