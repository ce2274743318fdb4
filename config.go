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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Refill threshold presets. The historical product mixed an absolute litre
// cutoff and a percentage-point cutoff across call sites; both survive here
// as named modes so the policy is explicit per deployment.
const (
	RefillModePercent  = "percent"
	RefillModeAbsolute = "absolute"
)

// Thresholds is the single named home for every analytic cutoff. Defaults
// are documented on each field; per-industry anomaly multipliers override
// the general one.
type Thresholds struct {
	// RefillMode selects how the refill delta is interpreted: "percent"
	// (percentage points of tank level) or "absolute" (litres).
	RefillMode        string  `yaml:"refill_mode"`
	RefillDeltaPct    float64 `yaml:"refill_delta_pct"`    // default 10 points
	RefillDeltaLiters float64 `yaml:"refill_delta_liters"` // default 200 L

	MaxIntervalDays    float64 `yaml:"max_interval_days"`    // default 7
	TrendChange        float64 `yaml:"trend_change"`         // default 0.15
	MinTrendPoints     int     `yaml:"min_trend_points"`     // default 3
	CriticalLevelPct   float64 `yaml:"critical_level_pct"`   // default 20
	MinBaselineSamples int     `yaml:"min_baseline_samples"` // default 7
	RollingWindowDays  int     `yaml:"rolling_window_days"`  // default 7

	// AnomalyMultipliers maps industry -> observed/baseline ratio at which
	// consumption is flagged. Missing industries fall back to "general".
	AnomalyMultipliers map[string]float64 `yaml:"anomaly_multipliers"`
	SevereFactor       float64            `yaml:"severe_factor"`      // default 1.5x the multiplier
	LeakMinIntervals   int                `yaml:"leak_min_intervals"` // default 3
}

// DefaultThresholds returns the documented default threshold set
func DefaultThresholds() Thresholds {
	return Thresholds{
		RefillMode:         RefillModePercent,
		RefillDeltaPct:     10,
		RefillDeltaLiters:  200,
		MaxIntervalDays:    7,
		TrendChange:        0.15,
		MinTrendPoints:     3,
		CriticalLevelPct:   20,
		MinBaselineSamples: 7,
		RollingWindowDays:  7,
		AnomalyMultipliers: map[string]float64{
			"general": 2.0,
			"farming": 2.5,
			"mining":  3.0,
		},
		SevereFactor:     1.5,
		LeakMinIntervals: 3,
	}
}

// MultiplierFor returns the anomaly multiplier for an industry, falling
// back to "general"
func (t Thresholds) MultiplierFor(industry string) float64 {
	if m, ok := t.AnomalyMultipliers[strings.ToLower(industry)]; ok && m > 0 {
		return m
	}
	if m, ok := t.AnomalyMultipliers["general"]; ok && m > 0 {
		return m
	}
	return 2.0
}

// RefillDelta resolves the refill threshold in the given unit. Absolute
// mode against a percent series needs the tank capacity; asking for that
// conversion without one is a hard failure, not a silent default.
func (t Thresholds) RefillDelta(unit LevelUnit, capacityLiters float64) (float64, error) {
	switch t.RefillMode {
	case RefillModeAbsolute:
		if unit == UnitLiters {
			return t.RefillDeltaLiters, nil
		}
		if capacityLiters <= 0 {
			return 0, &ValidationError{
				Field:   "capacity_liters",
				Message: "absolute refill threshold against a percent series requires tank capacity",
			}
		}
		return t.RefillDeltaLiters / capacityLiters * 100, nil
	case RefillModePercent, "":
		if unit == UnitPercent {
			return t.RefillDeltaPct, nil
		}
		if capacityLiters <= 0 {
			return 0, &ValidationError{
				Field:   "capacity_liters",
				Message: "percent refill threshold against a litre series requires tank capacity",
			}
		}
		return t.RefillDeltaPct / 100 * capacityLiters, nil
	}
	return 0, &ValidationError{
		Field:   "refill_mode",
		Value:   t.RefillMode,
		Message: "must be percent or absolute",
	}
}

// CriticalLevelFor returns the critical level for an asset, preferring the
// asset-specific minimum
func (t Thresholds) CriticalLevelFor(asset Asset) float64 {
	if asset.CriticalLevelPct > 0 {
		return asset.CriticalLevelPct
	}
	return t.CriticalLevelPct
}

// RoadRiskConfig configures the optional road-closure lead-time adjustment
type RoadRiskConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// Config holds the application configuration
type Config struct {
	// Reading store
	DatabasePath string `yaml:"database_path"`

	// Scope
	CustomerID string `yaml:"customer_id"`

	// Analysis settings
	WindowDays         int        `yaml:"window_days"`          // lookback for trend/prediction
	BaselineWindowDays int        `yaml:"baseline_window_days"` // lookback for baseline
	Thresholds         Thresholds `yaml:"thresholds"`

	// Per-customer delivery settings; missing customers use defaults
	CustomerSettings map[string]CustomerSettings `yaml:"customer_settings"`

	RoadRisk RoadRiskConfig `yaml:"road_risk"`

	// Storage for snapshots and the prediction cache
	StoragePath string `yaml:"storage_path"`

	// Debugging
	Debug bool `yaml:"debug"`
}

// DefaultSettings are the delivery planning defaults applied when a
// customer has no override: 3 days lead time, top up to 70%, spike at 2x
func DefaultSettings() CustomerSettings {
	return CustomerSettings{
		LeadTimeDays:             3,
		TargetLevelPct:           70,
		SpikeThresholdMultiplier: 2.0,
	}
}

// SettingsFor returns the delivery settings for a customer, filling any
// zero-valued field from the defaults
func (c *Config) SettingsFor(customerID string) CustomerSettings {
	settings := DefaultSettings()
	override, ok := c.CustomerSettings[customerID]
	if !ok {
		return settings
	}
	if override.LeadTimeDays > 0 {
		settings.LeadTimeDays = override.LeadTimeDays
	}
	if override.TargetLevelPct > 0 {
		settings.TargetLevelPct = override.TargetLevelPct
	}
	if override.SpikeThresholdMultiplier > 0 {
		settings.SpikeThresholdMultiplier = override.SpikeThresholdMultiplier
	}
	return settings
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Set defaults
	config := &Config{
		DatabasePath:       "tankwatch.db",
		WindowDays:         30,
		BaselineWindowDays: 90,
		Thresholds:         DefaultThresholds(),
		StoragePath:        getDefaultStoragePath(),
		Debug:              false,
	}

	// If no path provided, return defaults with env var overrides
	if path == "" {
		config.applyEnvironmentVariables()
		return config, nil
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentVariables()

	return config, nil
}

// getDefaultStoragePath returns the default storage path
func getDefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tankwatch"
	}
	return filepath.Join(home, ".config", "tankwatch")
}

// applyEnvironmentVariables overrides config with environment variables
func (c *Config) applyEnvironmentVariables() {
	if val := os.Getenv("TANKWATCH_DB"); val != "" {
		c.DatabasePath = val
	}
	if val := os.Getenv("TANKWATCH_CUSTOMER"); val != "" {
		c.CustomerID = val
	}
	if val := os.Getenv("TANKWATCH_STORAGE_PATH"); val != "" {
		c.StoragePath = val
	}
	if val := os.Getenv("TANKWATCH_WINDOW_DAYS"); val != "" {
		if days, err := strconv.Atoi(val); err == nil {
			c.WindowDays = days
		}
	}
	if val := os.Getenv("TANKWATCH_DEBUG"); val == "true" || val == "1" {
		c.Debug = true
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if c.DatabasePath == "" {
		errors = append(errors, "database_path is required")
	}

	if c.WindowDays < 2 || c.WindowDays > 365 {
		errors = append(errors, "window_days must be between 2 and 365")
	}

	if c.BaselineWindowDays < c.WindowDays {
		errors = append(errors, "baseline_window_days must be at least window_days")
	}

	t := c.Thresholds
	if t.RefillMode != RefillModePercent && t.RefillMode != RefillModeAbsolute && t.RefillMode != "" {
		errors = append(errors, "thresholds.refill_mode must be percent or absolute")
	}
	if t.RefillMode != RefillModeAbsolute && (t.RefillDeltaPct <= 0 || t.RefillDeltaPct > 100) {
		errors = append(errors, "thresholds.refill_delta_pct must be between 0 and 100")
	}
	if t.RefillMode == RefillModeAbsolute && t.RefillDeltaLiters <= 0 {
		errors = append(errors, "thresholds.refill_delta_liters must be positive")
	}
	if t.MaxIntervalDays <= 0 {
		errors = append(errors, "thresholds.max_interval_days must be positive")
	}
	if t.TrendChange <= 0 || t.TrendChange >= 1 {
		errors = append(errors, "thresholds.trend_change must be between 0 and 1")
	}
	if t.CriticalLevelPct < 0 || t.CriticalLevelPct >= 100 {
		errors = append(errors, "thresholds.critical_level_pct must be between 0 and 100")
	}
	for industry, multiplier := range t.AnomalyMultipliers {
		if multiplier < 1 {
			errors = append(errors, fmt.Sprintf("thresholds.anomaly_multipliers.%s must be at least 1", industry))
		}
	}

	if c.RoadRisk.Enabled {
		if c.RoadRisk.Latitude < -90 || c.RoadRisk.Latitude > 90 {
			errors = append(errors, "road_risk.latitude must be between -90 and 90")
		}
		if c.RoadRisk.Longitude < -180 || c.RoadRisk.Longitude > 180 {
			errors = append(errors, "road_risk.longitude must be between -180 and 180")
		}
	}

	// Set default storage path if empty
	if c.StoragePath == "" {
		c.StoragePath = getDefaultStoragePath()
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
