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
	"sort"
	"strconv"
	"time"
)

// RawRow is one reading as delivered by a source schema. Each telemetry
// generation carried its own field names and types; a variant per schema
// maps them onto the canonical Reading instead of renaming fields at every
// call site.
type RawRow interface {
	// ToReading converts the row to a canonical Reading. The second return
	// is false when the row has no usable level field and must be dropped.
	ToReading() (Reading, bool)
}

// SensorRowV1 is the first-generation telemetry schema: percent only,
// fields frequently arriving as strings
type SensorRowV1 struct {
	Timestamp   any `json:"timestamp"`
	FuelPercent any `json:"fuel_percent"`
	Online      any `json:"online"`
}

func (r SensorRowV1) ToReading() (Reading, bool) {
	ts, ok := coerceTime(r.Timestamp)
	if !ok {
		return Reading{}, false
	}
	pct := coerceFloat(r.FuelPercent)
	if pct == nil {
		return Reading{}, false
	}
	return Reading{
		Timestamp:    ts,
		LevelPercent: pct,
		DeviceOnline: coerceBool(r.Online, true),
		Source:       SourceSensor,
	}, true
}

// SensorRowV2 is the current telemetry schema: percent plus litres and a
// differently named online flag
type SensorRowV2 struct {
	ReadingTime  any `json:"reading_time"`
	LevelPct     any `json:"level_pct"`
	LevelLitres  any `json:"level_litres"`
	DeviceOnline any `json:"device_online"`
}

func (r SensorRowV2) ToReading() (Reading, bool) {
	ts, ok := coerceTime(r.ReadingTime)
	if !ok {
		return Reading{}, false
	}
	pct := coerceFloat(r.LevelPct)
	litres := coerceFloat(r.LevelLitres)
	if pct == nil && litres == nil {
		return Reading{}, false
	}
	return Reading{
		Timestamp:    ts,
		LevelPercent: pct,
		LevelLiters:  litres,
		DeviceOnline: coerceBool(r.DeviceOnline, true),
		Source:       SourceSensor,
	}, true
}

// ManualDipRow is a hand-entered dip reading in litres. Manual entries are
// always treated as device-online.
type ManualDipRow struct {
	RecordedAt any `json:"recorded_at"`
	Litres     any `json:"litres"`
	Estimated  any `json:"estimated"`
}

func (r ManualDipRow) ToReading() (Reading, bool) {
	ts, ok := coerceTime(r.RecordedAt)
	if !ok {
		return Reading{}, false
	}
	litres := coerceFloat(r.Litres)
	if litres == nil {
		return Reading{}, false
	}
	source := SourceManual
	if coerceBool(r.Estimated, false) {
		source = SourceEstimate
	}
	return Reading{
		Timestamp:    ts,
		LevelLiters:  litres,
		DeviceOnline: true,
		Source:       source,
	}, true
}

// NormalizeReadings converts raw rows into a canonical Series: rows without
// a usable level are dropped, the rest are sorted ascending by timestamp,
// and exact-timestamp collisions keep the last-seen row. "No data" is a
// valid, common case, so a nil or empty input yields an empty Series rather
// than an error.
func NormalizeReadings(rows []RawRow) Series {
	if len(rows) == 0 {
		return Series{}
	}

	readings := make(Series, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		if reading, ok := row.ToReading(); ok {
			readings = append(readings, reading)
		}
	}

	// Stable sort so that among equal timestamps the last-ingested row
	// stays last, which is the one dedup keeps
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	deduped := make(Series, 0, len(readings))
	for _, r := range readings {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp.Equal(r.Timestamp) {
			deduped[n-1] = r
			continue
		}
		deduped = append(deduped, r)
	}

	return deduped
}

// Coercion helpers: source schemas deliver numbers as float64, int or
// string depending on the exporter version

func coerceFloat(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return &val
	case float32:
		f := float64(val)
		return &f
	case int:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

func coerceTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case int64:
		if val <= 0 {
			return time.Time{}, false
		}
		return time.Unix(val, 0).UTC(), true
	case int:
		if val <= 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(val), 0).UTC(), true
	case float64:
		if val <= 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(val), 0).UTC(), true
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02 15:04:05", val); err == nil {
			return t.UTC(), true
		}
		if unix, err := strconv.ParseInt(val, 10, 64); err == nil && unix > 0 {
			return time.Unix(unix, 0).UTC(), true
		}
	}
	return time.Time{}, false
}

func coerceBool(v any, fallback bool) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		switch val {
		case "true", "1", "yes", "online":
			return true
		case "false", "0", "no", "offline":
			return false
		}
	}
	return fallback
}
