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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// IngestCSV loads level readings for one asset from a CSV file into the
// reading store. Expected header columns (order-insensitive): recorded_at,
// level_percent, level_liters, device_online, source. Empty cells mean
// "no value"; rows without a usable level are skipped and counted, not
// fatal, matching the normalizer's tolerance for messy telemetry.
func IngestCSV(store *SQLStore, assetID, path string, logger *Logger) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, &StorageError{Operation: "open_ingest_file", Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return 0, &DataError{DataType: "ingest_csv", Message: fmt.Sprintf("cannot read header: %v", err)}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["recorded_at"]; !ok {
		return 0, &DataError{DataType: "ingest_csv", Message: "missing recorded_at column"}
	}

	cell := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	inserted := 0
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return inserted, &DataError{DataType: "ingest_csv", Message: fmt.Sprintf("malformed row: %v", err)}
		}

		ts, ok := coerceTime(cell(record, "recorded_at"))
		if !ok {
			skipped++
			continue
		}

		reading := Reading{
			Timestamp:    ts,
			DeviceOnline: coerceBool(cell(record, "device_online"), true),
			Source:       SourceSensor,
		}
		if v := cell(record, "level_percent"); v != "" {
			reading.LevelPercent = coerceFloat(v)
		}
		if v := cell(record, "level_liters"); v != "" {
			reading.LevelLiters = coerceFloat(v)
		}
		if reading.LevelPercent == nil && reading.LevelLiters == nil {
			skipped++
			continue
		}

		switch strings.ToLower(cell(record, "source")) {
		case string(SourceManual):
			reading.Source = SourceManual
		case string(SourceEstimate):
			reading.Source = SourceEstimate
		}

		// The schema tag decides how the row is rebuilt on fetch, and
		// manual dips rebuild from the litres column only. A hand-entered
		// percent must keep the sensor tag or the level is lost on the
		// way back out.
		schema := SchemaSensorV2
		if reading.Source != SourceSensor && reading.LevelLiters != nil && reading.LevelPercent == nil {
			schema = SchemaManualDip
		}

		if err := store.InsertReading(assetID, schema, reading); err != nil {
			return inserted, err
		}
		inserted++
	}

	if skipped > 0 {
		logger.Warn("Skipped unusable rows during ingest", "skipped", skipped)
	}
	logger.Info("Ingest complete", "asset_id", assetID, "inserted", inserted)

	return inserted, nil
}
