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
	"embed"
	"time"

	"github.com/NotCoffee418/dbmigrator"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ReadingStore is the boundary to wherever readings live. The analyzer
// makes no assumptions about ordering or dedup of the returned rows; the
// normalizer handles both.
type ReadingStore interface {
	// FetchReadings returns the raw rows for one asset in [from, to],
	// in whatever source schemas they were ingested under
	FetchReadings(assetID string, from, to time.Time) ([]RawRow, error)
	// FetchAssets returns the assets in a customer scope; an empty
	// customerID means all assets
	FetchAssets(customerID string) ([]Asset, error)
	// FetchOperations returns predicted operation windows ending after
	// the given time
	FetchOperations(assetID string, after time.Time) ([]OperationWindow, error)
}

// Raw schema tags as stored on ingested rows
const (
	SchemaSensorV1  = "sensor_v1"
	SchemaSensorV2  = "sensor_v2"
	SchemaManualDip = "manual_dip"
)

// SQLStore is the SQLite-backed reading store
type SQLStore struct {
	db     *sql.DB
	logger *Logger
}

// OpenStore opens the SQLite database at path and applies any pending
// migrations
func OpenStore(path string, logger *Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Operation: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		return nil, &StoreError{Operation: "ping", Err: err}
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(db, migrationFS, "migrations")

	logger.Debug("Reading store opened", "path", path)

	return &SQLStore{db: db, logger: logger}, nil
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// FetchReadings returns raw reading rows for an asset within [from, to].
// Rows come back ordered by ingestion so that the normalizer's
// keep-last-seen dedup resolves same-timestamp collisions in favor of the
// most recently ingested record.
func (s *SQLStore) FetchReadings(assetID string, from, to time.Time) ([]RawRow, error) {
	query := `
		SELECT schema, recorded_at, level_percent, level_liters, device_online, source
		FROM readings
		WHERE asset_id = ? AND recorded_at >= ? AND recorded_at <= ?
		ORDER BY ingested_at, id
	`

	rows, err := s.db.Query(query, assetID, from.Unix(), to.Unix())
	if err != nil {
		return nil, &StoreError{Operation: "fetch_readings", AssetID: assetID, Err: err}
	}
	defer rows.Close()

	var out []RawRow
	for rows.Next() {
		var (
			schema     string
			recordedAt int64
			pct        sql.NullFloat64
			litres     sql.NullFloat64
			online     sql.NullBool
			source     sql.NullString
		)
		if err := rows.Scan(&schema, &recordedAt, &pct, &litres, &online, &source); err != nil {
			return nil, &StoreError{Operation: "scan_reading", AssetID: assetID, Err: err}
		}
		out = append(out, rawRowFor(schema, recordedAt, pct, litres, online, source))
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Operation: "fetch_readings", AssetID: assetID, Err: err}
	}

	return out, nil
}

// rawRowFor reconstructs the source-schema variant a row was ingested
// under. Unknown tags fall back to the current sensor schema.
func rawRowFor(schema string, recordedAt int64, pct, litres sql.NullFloat64, online sql.NullBool, source sql.NullString) RawRow {
	switch schema {
	case SchemaSensorV1:
		row := SensorRowV1{Timestamp: recordedAt}
		if pct.Valid {
			row.FuelPercent = pct.Float64
		}
		if online.Valid {
			row.Online = online.Bool
		}
		return row
	case SchemaManualDip:
		row := ManualDipRow{RecordedAt: recordedAt}
		if litres.Valid {
			row.Litres = litres.Float64
		}
		row.Estimated = source.Valid && source.String == string(SourceEstimate)
		return row
	default:
		row := SensorRowV2{ReadingTime: recordedAt}
		if pct.Valid {
			row.LevelPct = pct.Float64
		}
		if litres.Valid {
			row.LevelLitres = litres.Float64
		}
		if online.Valid {
			row.DeviceOnline = online.Bool
		}
		return row
	}
}

// FetchAssets returns the assets in a customer scope
func (s *SQLStore) FetchAssets(customerID string) ([]Asset, error) {
	query := `
		SELECT id, name, customer_id, capacity_liters, critical_level_pct, industry
		FROM assets
	`
	args := []any{}
	if customerID != "" {
		query += " WHERE customer_id = ?"
		args = append(args, customerID)
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &StoreError{Operation: "fetch_assets", Err: err}
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		var capacity, critical sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.Name, &a.CustomerID, &capacity, &critical, &a.Industry); err != nil {
			return nil, &StoreError{Operation: "scan_asset", Err: err}
		}
		if capacity.Valid {
			a.CapacityLiters = capacity.Float64
		}
		if critical.Valid {
			a.CriticalLevelPct = critical.Float64
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Operation: "fetch_assets", Err: err}
	}

	return assets, nil
}

// FetchOperations returns predicted operation windows still relevant after
// the given time
func (s *SQLStore) FetchOperations(assetID string, after time.Time) ([]OperationWindow, error) {
	query := `
		SELECT op_type, start_at, end_at, fuel_impact
		FROM operations
		WHERE asset_id = ? AND end_at >= ?
		ORDER BY start_at
	`

	rows, err := s.db.Query(query, assetID, after.Unix())
	if err != nil {
		return nil, &StoreError{Operation: "fetch_operations", AssetID: assetID, Err: err}
	}
	defer rows.Close()

	var ops []OperationWindow
	for rows.Next() {
		var op OperationWindow
		var startAt, endAt int64
		if err := rows.Scan(&op.Type, &startAt, &endAt, &op.FuelImpact); err != nil {
			return nil, &StoreError{Operation: "scan_operation", AssetID: assetID, Err: err}
		}
		op.StartAt = time.Unix(startAt, 0).UTC()
		op.EndAt = time.Unix(endAt, 0).UTC()
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Operation: "fetch_operations", AssetID: assetID, Err: err}
	}

	return ops, nil
}

// UpsertAsset inserts or replaces an asset's metadata
func (s *SQLStore) UpsertAsset(a Asset) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO assets (id, name, customer_id, capacity_liters, critical_level_pct, industry)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.CustomerID, a.CapacityLiters, a.CriticalLevelPct, a.Industry,
	)
	if err != nil {
		return &StoreError{Operation: "upsert_asset", AssetID: a.ID, Err: err}
	}
	return nil
}

// InsertReading ingests one canonical reading under a source schema tag
func (s *SQLStore) InsertReading(assetID, schema string, r Reading) error {
	var pct, litres any
	if r.LevelPercent != nil {
		pct = *r.LevelPercent
	}
	if r.LevelLiters != nil {
		litres = *r.LevelLiters
	}

	_, err := s.db.Exec(`
		INSERT INTO readings (asset_id, schema, recorded_at, level_percent, level_liters, device_online, source, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		assetID, schema, r.Timestamp.Unix(), pct, litres, r.DeviceOnline, string(r.Source), time.Now().Unix(),
	)
	if err != nil {
		return &StoreError{Operation: "insert_reading", AssetID: assetID, Err: err}
	}
	return nil
}

// InsertOperation records a predicted operation window for an asset
func (s *SQLStore) InsertOperation(assetID string, op OperationWindow) error {
	_, err := s.db.Exec(`
		INSERT INTO operations (asset_id, op_type, start_at, end_at, fuel_impact)
		VALUES (?, ?, ?, ?, ?)`,
		assetID, op.Type, op.StartAt.Unix(), op.EndAt.Unix(), op.FuelImpact,
	)
	if err != nil {
		return &StoreError{Operation: "insert_operation", AssetID: assetID, Err: err}
	}
	return nil
}
