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
	"time"
)

// ReadingSource identifies how a level reading was produced
type ReadingSource string

const (
	SourceSensor   ReadingSource = "sensor"
	SourceManual   ReadingSource = "manual"
	SourceEstimate ReadingSource = "estimate"
)

// LevelUnit selects which level field computations operate on
type LevelUnit string

const (
	UnitPercent LevelUnit = "percent"
	UnitLiters  LevelUnit = "liters"
)

// Reading is one canonical tank level observation
type Reading struct {
	Timestamp    time.Time     `json:"timestamp"`
	LevelPercent *float64      `json:"levelPercent"`
	LevelLiters  *float64      `json:"levelLiters"`
	DeviceOnline bool          `json:"deviceOnline"`
	Source       ReadingSource `json:"source"`
}

// LevelIn returns the reading's level in the requested unit, deriving the
// missing representation from capacity where possible. The second return is
// false when no usable level exists in that unit.
func (r Reading) LevelIn(unit LevelUnit, capacityLiters float64) (float64, bool) {
	switch unit {
	case UnitPercent:
		if r.LevelPercent != nil {
			return *r.LevelPercent, true
		}
		if r.LevelLiters != nil && capacityLiters > 0 {
			return *r.LevelLiters / capacityLiters * 100, true
		}
	case UnitLiters:
		if r.LevelLiters != nil {
			return *r.LevelLiters, true
		}
		if r.LevelPercent != nil && capacityLiters > 0 {
			return *r.LevelPercent / 100 * capacityLiters, true
		}
	}
	return 0, false
}

// Series is an ordered, deduplicated sequence of readings for one asset.
// Produced by NormalizeReadings; no component mutates a Series after that.
type Series []Reading

// Window returns the readings with timestamps in [from, to]
func (s Series) Window(from, to time.Time) Series {
	var out Series
	for _, r := range s {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			out = append(out, r)
		}
	}
	return out
}

// OnlineOnly returns the readings where the device reported online
func (s Series) OnlineOnly() Series {
	var out Series
	for _, r := range s {
		if r.DeviceOnline {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the most recent reading, or false for an empty series
func (s Series) Latest() (Reading, bool) {
	if len(s) == 0 {
		return Reading{}, false
	}
	return s[len(s)-1], true
}

// IntervalClass labels a consecutive reading pair
type IntervalClass string

const (
	ClassConsumption IntervalClass = "consumption"
	ClassRefill      IntervalClass = "refill"
	ClassNoise       IntervalClass = "noise"
)

// ConsumptionInterval is the delta between two adjacent readings. DeltaLevel
// is positive when level fell (consumption) and negative when it rose.
type ConsumptionInterval struct {
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	DurationDays float64       `json:"durationDays"`
	DeltaLevel   float64       `json:"deltaLevel"`
	Class        IntervalClass `json:"class"`
}

// DailyRate returns the interval's consumption rate per day
func (ci ConsumptionInterval) DailyRate() float64 {
	if ci.DurationDays <= 0 {
		return 0
	}
	return ci.DeltaLevel / ci.DurationDays
}

// Baseline is a longer-horizon consumption profile, recomputed on demand
// from raw history and never persisted as a source of truth.
type Baseline struct {
	MeanDailyRate   float64 `json:"meanDailyRate"`
	StddevDailyRate float64 `json:"stddevDailyRate"`
	SampleCount     int     `json:"sampleCount"`
	WindowDays      int     `json:"windowDays"`
}

// AnomalySeverity grades how far consumption sits above baseline
type AnomalySeverity string

const (
	SeverityNone     AnomalySeverity = "none"
	SeverityModerate AnomalySeverity = "moderate"
	SeveritySevere   AnomalySeverity = "severe"
)

// AnomalyResult is the outcome of comparing recent consumption to baseline
type AnomalyResult struct {
	IsAnomalous     bool            `json:"isAnomalous"`
	Severity        AnomalySeverity `json:"severity"`
	PotentialLeak   bool            `json:"potentialLeak"`
	RatioToBaseline float64         `json:"ratioToBaseline"`
	ThresholdUsed   float64         `json:"thresholdUsed"`
}

// Urgency classifies how soon an asset needs attention
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyWarning  Urgency = "warning"
	UrgencyNormal   Urgency = "normal"
	UrgencyUnknown  Urgency = "unknown"
)

// Confidence is a qualitative reliability label on a prediction
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// RefillPrediction projects when an asset reaches its critical level.
// DaysRemaining and PredictedRefillDate are nil when unknowable: no
// discernible consumption, or the asset already sits at/below critical.
type RefillPrediction struct {
	AssetID             string     `json:"assetId"`
	AssetName           string     `json:"assetName"`
	CustomerID          string     `json:"customerId"`
	CurrentLevelPct     float64    `json:"currentLevelPct"`
	DailyConsumption    float64    `json:"dailyConsumption"`
	DaysRemaining       *float64   `json:"daysRemaining"`
	PredictedRefillDate *time.Time `json:"predictedRefillDate"`
	Urgency             Urgency    `json:"urgency"`
	Confidence          Confidence `json:"confidence"`
}

// DeliveryRecommendation is the suggested order for one asset
type DeliveryRecommendation struct {
	Urgency              Urgency    `json:"urgency"`
	RecommendedOrderDate *time.Time `json:"recommendedOrderDate"`
	RecommendedVolume    float64    `json:"recommendedVolume"`
	OperationType        *string    `json:"operationType"`
	BufferDays           *float64   `json:"bufferDays"`
}

// OperationWindow is a predicted operational event (harvest, blast cycle)
// with its expected effect on fuel demand
type OperationWindow struct {
	Type       string    `json:"type"`
	StartAt    time.Time `json:"startAt"`
	EndAt      time.Time `json:"endAt"`
	FuelImpact float64   `json:"fuelImpact"` // multiplier vs normal demand
}

// CustomerSettings are the per-customer delivery planning knobs
type CustomerSettings struct {
	LeadTimeDays             int     `yaml:"lead_time_days" json:"leadTimeDays"`
	TargetLevelPct           float64 `yaml:"target_level_pct" json:"targetLevelPct"`
	SpikeThresholdMultiplier float64 `yaml:"spike_threshold_multiplier" json:"spikeThresholdMultiplier"`
}

// Asset is the metadata tankwatch consumes about one tank
type Asset struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	CustomerID       string  `json:"customerId"`
	CapacityLiters   float64 `json:"capacityLiters"`
	CriticalLevelPct float64 `json:"criticalLevelPct"` // 0 means use the configured default
	Industry         string  `json:"industry"`         // farming, mining, general
}

// ReliabilityScore summarizes how trustworthy a series is for prediction
type ReliabilityScore struct {
	Score          float64 `json:"score"` // 0..1
	ReadingsPerDay float64 `json:"readingsPerDay"`
	LongestGapDays float64 `json:"longestGapDays"`
	OnlineRatio    float64 `json:"onlineRatio"`
	Good           bool    `json:"good"`
}

// TrendDirection labels the week-over-week consumption movement
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// AnalyticsSummary is the consolidated per-asset output consumed by the
// reporter, alerting and the fleet calendar. All metrics come from the one
// canonical pipeline; nothing downstream re-derives them.
type AnalyticsSummary struct {
	AssetID            string           `json:"assetId"`
	GeneratedAt        time.Time        `json:"generatedAt"`
	WindowDays         int              `json:"windowDays"`
	RollingAvgPerDay   float64          `json:"rollingAvgPerDay"` // percent points/day
	Trend              TrendDirection   `json:"trend"`
	PrevDayUsage       float64          `json:"prevDayUsage"`
	CurrentLevelPct    *float64         `json:"currentLevelPct"`
	DaysToCritical     *float64         `json:"daysToCritical"`
	PredictedEmptyDate *time.Time       `json:"predictedEmptyDate"`
	Baseline           *Baseline        `json:"baseline"`
	Anomaly            *AnomalyResult   `json:"anomaly"`
	Reliability        ReliabilityScore `json:"reliability"`
	ReadingCount       int              `json:"readingCount"`
	RefillCount        int              `json:"refillCount"`
}

// AssetAnalysis bundles everything computed for one asset in a run
type AssetAnalysis struct {
	Asset          Asset                   `json:"asset"`
	Summary        AnalyticsSummary        `json:"summary"`
	Prediction     RefillPrediction        `json:"prediction"`
	Recommendation *DeliveryRecommendation `json:"recommendation"`
	Series         Series                  `json:"-"`
	Intervals      []ConsumptionInterval   `json:"-"`
}
