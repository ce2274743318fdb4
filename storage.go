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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Storage persists fleet snapshots and hosts the prediction cache. The
// snapshots are a convenience record of past runs; analytics are always
// recomputed from raw history, never replayed from here.
type Storage struct {
	basePath string
	cache    *Cache
	logger   *Logger
}

// NewStorage creates a new storage handler with caching. The scope string
// (customer ID, or "fleet" for unscoped runs) isolates cache entries.
func NewStorage(basePath string, scope string, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, &StorageError{
			Operation: "create_directory",
			Path:      basePath,
			Err:       err,
		}
	}

	cache, err := NewCache(basePath, scope, logger)
	if err != nil {
		return nil, &StorageError{
			Operation: "initialize_cache",
			Path:      basePath,
			Err:       err,
		}
	}

	if err := cache.CleanExpired(); err != nil {
		logger.Warn("Failed to clean expired cache", "error", err)
	}

	logger.Debug("Storage initialized", "path", basePath)

	return &Storage{
		basePath: basePath,
		cache:    cache,
		logger:   logger,
	}, nil
}

// SaveFleetSnapshot saves a fleet calendar run
func (s *Storage) SaveFleetSnapshot(calendar *FleetCalendar, scope string) error {
	filename := fmt.Sprintf("%s_fleet_%s.json", scope, calendar.GeneratedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.basePath, filename)

	s.logger.LogStorageOperation("save_fleet_snapshot", path)

	return s.saveJSON(path, calendar)
}

// SaveAssetAnalysis saves a single-asset analysis
func (s *Storage) SaveAssetAnalysis(analysis *AssetAnalysis) error {
	filename := fmt.Sprintf("asset_%s_%s.json", analysis.Asset.ID, analysis.Summary.GeneratedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.basePath, filename)

	s.logger.LogStorageOperation("save_asset_analysis", path)

	return s.saveJSON(path, analysis)
}

// LoadLatestSnapshot loads the most recent fleet snapshot for a scope
func (s *Storage) LoadLatestSnapshot(scope string) (*FleetCalendar, error) {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("%s_fleet_*.json", scope))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &StorageError{
			Operation: "glob_snapshots",
			Path:      pattern,
			Err:       err,
		}
	}

	if len(matches) == 0 {
		return nil, nil // No previous snapshot found
	}

	// Filenames embed the timestamp, so the glob order is chronological
	latestFile := matches[len(matches)-1]

	s.logger.LogStorageOperation("load_latest_snapshot", latestFile)

	var calendar FleetCalendar
	if err := s.loadJSON(latestFile, &calendar); err != nil {
		return nil, err
	}

	return &calendar, nil
}

// saveJSON saves data as JSON to a file
func (s *Storage) saveJSON(path string, data interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return &StorageError{
			Operation: "create_file",
			Path:      path,
			Err:       err,
		}
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return &StorageError{
			Operation: "encode_json",
			Path:      path,
			Err:       err,
		}
	}

	return nil
}

// loadJSON loads data from a JSON file
func (s *Storage) loadJSON(path string, target interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return &StorageError{
			Operation: "open_file",
			Path:      path,
			Err:       err,
		}
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return &StorageError{
			Operation: "decode_json",
			Path:      path,
			Err:       err,
		}
	}

	return nil
}

// SaveCache saves data to cache with a TTL (time-to-live)
func (s *Storage) SaveCache(key string, data interface{}, ttl time.Duration) error {
	return s.cache.Set(key, data, ttl)
}

// LoadCache loads data from cache if it exists and hasn't expired
func (s *Storage) LoadCache(key string, target interface{}) (bool, error) {
	return s.cache.Get(key, target)
}

// ClearCache clears all cache entries for the current scope
func (s *Storage) ClearCache() error {
	return s.cache.Clear()
}

// Close closes all storage resources
func (s *Storage) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
