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
	"sync"
	"time"
)

// CacheEntry represents a single cached item with expiration
type CacheEntry struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// CacheStore holds all cache entries for a scope
type CacheStore struct {
	Entries map[string]*CacheEntry `json:"entries"`
}

// Cache provides simple JSON file-based caching with per-scope isolation.
// Fleet prediction runs are cheap but not free; a short TTL keeps repeated
// report invocations from re-walking every asset.
type Cache struct {
	filePath string
	scope    string
	store    *CacheStore
	mutex    sync.RWMutex
	logger   *Logger
}

// NewCache creates a new JSON file cache instance
func NewCache(basePath string, scope string, logger *Logger) (*Cache, error) {
	cacheFile := filepath.Join(basePath, fmt.Sprintf("cache_%s.json", scope))

	cache := &Cache{
		filePath: cacheFile,
		scope:    scope,
		store:    &CacheStore{Entries: make(map[string]*CacheEntry)},
		logger:   logger,
	}

	// Load existing cache from file
	if err := cache.load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to load cache, starting fresh", "error", err)
		}
	}

	// Clean expired entries on startup
	cache.cleanExpired()

	logger.Debug("Cache initialized", "path", cacheFile, "scope", scope, "entries", len(cache.store.Entries))

	return cache, nil
}

// Set stores a value in cache with TTL (time-to-live)
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return &StorageError{
			Operation: "marshal_cache_value",
			Path:      c.filePath,
			Err:       err,
		}
	}

	now := time.Now()
	c.store.Entries[key] = &CacheEntry{
		Data:      valueJSON,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	return c.save()
}

// Get loads a value from cache if present and unexpired; the bool reports
// whether the target was populated
func (c *Cache) Get(key string, target interface{}) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.store.Entries[key]
	if !exists {
		return false, nil
	}

	if time.Now().After(entry.ExpiresAt) {
		return false, nil
	}

	if err := json.Unmarshal(entry.Data, target); err != nil {
		return false, &StorageError{
			Operation: "unmarshal_cache_value",
			Path:      c.filePath,
			Err:       err,
		}
	}

	return true, nil
}

// Clear removes all cache entries for this scope
func (c *Cache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.store.Entries = make(map[string]*CacheEntry)
	return c.save()
}

// CleanExpired removes expired entries and persists the result
func (c *Cache) CleanExpired() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := c.cleanExpired()
	if removed == 0 {
		return nil
	}
	return c.save()
}

// cleanExpired removes expired entries; callers hold the lock
func (c *Cache) cleanExpired() int {
	now := time.Now()
	removed := 0
	for key, entry := range c.store.Entries {
		if now.After(entry.ExpiresAt) {
			delete(c.store.Entries, key)
			removed++
		}
	}
	return removed
}

// load reads the cache file into memory
func (c *Cache) load() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c.store)
}

// save writes the cache to disk; callers hold the lock
func (c *Cache) save() error {
	data, err := json.Marshal(c.store)
	if err != nil {
		return &StorageError{
			Operation: "marshal_cache",
			Path:      c.filePath,
			Err:       err,
		}
	}

	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		return &StorageError{
			Operation: "write_cache",
			Path:      c.filePath,
			Err:       err,
		}
	}

	return nil
}

// Close persists the cache one final time
func (c *Cache) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.save()
}
