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
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "test.db"), NewLogger(false))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	asset := Asset{
		ID:               "tank-1",
		Name:             "North Depot",
		CustomerID:       "acme",
		CapacityLiters:   5000,
		CriticalLevelPct: 20,
		Industry:         "farming",
	}
	if err := store.UpsertAsset(asset); err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		pct := 80.0 - float64(i)*2
		r := Reading{
			Timestamp:    base.AddDate(0, 0, i),
			LevelPercent: &pct,
			DeviceOnline: true,
			Source:       SourceSensor,
		}
		if err := store.InsertReading("tank-1", SchemaSensorV2, r); err != nil {
			t.Fatalf("InsertReading failed: %v", err)
		}
	}

	assets, err := store.FetchAssets("acme")
	if err != nil {
		t.Fatalf("FetchAssets failed: %v", err)
	}
	if len(assets) != 1 || assets[0].CapacityLiters != 5000 || assets[0].Industry != "farming" {
		t.Fatalf("asset round trip mismatch: %+v", assets)
	}

	rows, err := store.FetchReadings("tank-1", base.AddDate(0, 0, -1), base.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("FetchReadings failed: %v", err)
	}
	series := NormalizeReadings(rows)
	if len(series) != 3 {
		t.Fatalf("expected 3 readings back, got %d", len(series))
	}
	if series[0].LevelPercent == nil || *series[0].LevelPercent != 80 {
		t.Errorf("first reading percent lost: %+v", series[0])
	}

	op := OperationWindow{
		Type:       "harvest",
		StartAt:    base.AddDate(0, 0, 2),
		EndAt:      base.AddDate(0, 0, 4),
		FuelImpact: 2.5,
	}
	if err := store.InsertOperation("tank-1", op); err != nil {
		t.Fatalf("InsertOperation failed: %v", err)
	}
	ops, err := store.FetchOperations("tank-1", base)
	if err != nil {
		t.Fatalf("FetchOperations failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Type != "harvest" || ops[0].FuelImpact != 2.5 {
		t.Fatalf("operation round trip mismatch: %+v", ops)
	}
}

func TestRawRowForSchemas(t *testing.T) {
	recordedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Unix()

	v1 := rawRowFor(SchemaSensorV1, recordedAt,
		sql.NullFloat64{Float64: 62.5, Valid: true},
		sql.NullFloat64{},
		sql.NullBool{Bool: false, Valid: true},
		sql.NullString{String: "sensor", Valid: true})
	reading, ok := v1.ToReading()
	if !ok {
		t.Fatalf("v1 row should convert")
	}
	if reading.LevelPercent == nil || *reading.LevelPercent != 62.5 {
		t.Errorf("v1 percent lost: %+v", reading)
	}
	if reading.DeviceOnline {
		t.Errorf("v1 offline flag lost")
	}

	dip := rawRowFor(SchemaManualDip, recordedAt,
		sql.NullFloat64{},
		sql.NullFloat64{Float64: 1500, Valid: true},
		sql.NullBool{},
		sql.NullString{String: string(SourceEstimate), Valid: true})
	reading, ok = dip.ToReading()
	if !ok {
		t.Fatalf("dip row should convert")
	}
	if reading.LevelLiters == nil || *reading.LevelLiters != 1500 {
		t.Errorf("dip litres lost: %+v", reading)
	}
	if reading.Source != SourceEstimate {
		t.Errorf("estimate source lost, got %s", reading.Source)
	}

	// Unknown schema tags fall back to the current sensor schema
	v2 := rawRowFor("some_future_schema", recordedAt,
		sql.NullFloat64{Float64: 60, Valid: true},
		sql.NullFloat64{Float64: 1200, Valid: true},
		sql.NullBool{Bool: true, Valid: true},
		sql.NullString{})
	reading, ok = v2.ToReading()
	if !ok {
		t.Fatalf("fallback row should convert")
	}
	if reading.LevelPercent == nil || reading.LevelLiters == nil {
		t.Errorf("fallback should carry both levels: %+v", reading)
	}
}

func TestRawRowForUnusableRow(t *testing.T) {
	recordedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Unix()

	// A v1 row whose percent was NULL in the store has no usable level
	row := rawRowFor(SchemaSensorV1, recordedAt,
		sql.NullFloat64{}, sql.NullFloat64{}, sql.NullBool{}, sql.NullString{})
	if _, ok := row.ToReading(); ok {
		t.Errorf("level-less row must be dropped by normalization")
	}
}
