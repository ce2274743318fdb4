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
	"net/http"
	"time"
)

// Daily precipitation totals (mm) above these marks stretch delivery lead
// time. Remote-site operators plan around washed-out access roads, not
// drizzle, so only sustained heavy rain moves the needle.
const (
	heavyRainMM   = 15.0
	extremeRainMM = 40.0
)

// RoadRiskClient estimates extra delivery lead time from forecast
// precipitation at the site's coordinates. Heavy rain over the delivery
// window means slower or impassable access roads for remote tanks.
type RoadRiskClient struct {
	httpClient *http.Client
	storage    *Storage
	logger     *Logger
	latitude   float64
	longitude  float64
}

// openMeteoForecast is the subset of the Open-Meteo forecast response we
// read
type openMeteoForecast struct {
	Daily struct {
		Time          []string  `json:"time"`
		Precipitation []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// NewRoadRiskClient creates a road-risk client for a site location. storage
// may be nil; forecasts are then fetched on every call.
func NewRoadRiskClient(cfg RoadRiskConfig, storage *Storage, logger *Logger) *RoadRiskClient {
	return &RoadRiskClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		storage:    storage,
		logger:     logger,
		latitude:   cfg.Latitude,
		longitude:  cfg.Longitude,
	}
}

// ExtraLeadTimeDays returns how many days to add on top of the customer's
// normal delivery lead time, based on forecast precipitation over that lead
// window. Failures are non-fatal and return 0; a delivery plan without the
// road adjustment beats no plan at all.
func (r *RoadRiskClient) ExtraLeadTimeDays(now time.Time, leadTimeDays int) int {
	if leadTimeDays < 1 {
		leadTimeDays = 1
	}

	forecast, err := r.fetchForecast(now, leadTimeDays)
	if err != nil {
		r.logger.Warn("Failed to fetch road-risk forecast", "error", err)
		return 0
	}
	if forecast == nil {
		return 0
	}

	extra := 0
	for i, precip := range forecast.Daily.Precipitation {
		switch {
		case precip >= extremeRainMM:
			r.logger.Debug("Extreme precipitation in delivery window",
				"date", forecast.Daily.Time[i], "precipitation_mm", precip)
			return 2
		case precip >= heavyRainMM:
			extra = 1
		}
	}

	if extra > 0 {
		r.logger.Info("Heavy rain forecast in delivery window, extending lead time",
			"extra_days", extra)
	}

	return extra
}

// fetchForecast fetches the daily precipitation forecast covering the
// delivery lead window
func (r *RoadRiskClient) fetchForecast(now time.Time, days int) (*openMeteoForecast, error) {
	// Every asset in a fleet run asks for the same forecast, so try the
	// cache first (cache for 6 hours)
	cacheKey := fmt.Sprintf("forecast_%s_%d", now.Format("2006-01-02"), days)
	if r.storage != nil {
		var forecast *openMeteoForecast
		cached, err := r.storage.LoadCache(cacheKey, &forecast)
		if err != nil {
			r.logger.Warn("Failed to load forecast from cache", "error", err)
		}
		if cached {
			r.logger.Debug("Loaded forecast from cache", "key", cacheKey)
			return forecast, nil
		}
	}

	url := fmt.Sprintf("https://api.open-meteo.com/v1/forecast?latitude=%.4f&longitude=%.4f&daily=precipitation_sum&start_date=%s&end_date=%s&timezone=UTC",
		r.latitude,
		r.longitude,
		now.Format("2006-01-02"),
		now.AddDate(0, 0, days).Format("2006-01-02"),
	)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast request: %w", err)
	}

	req.Header.Set("User-Agent", GetUserAgent())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast API returned status %d", resp.StatusCode)
	}

	var forecast openMeteoForecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response: %w", err)
	}

	if r.storage != nil {
		if err := r.storage.SaveCache(cacheKey, &forecast, 6*time.Hour); err != nil {
			r.logger.Warn("Failed to cache forecast", "error", err)
		}
	}

	return &forecast, nil
}
