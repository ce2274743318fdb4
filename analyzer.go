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

// Analyzer runs the canonical analytics pipeline for assets. Every metric a
// consumer sees (dashboards, alerts, fleet calendar) comes out of this one
// pipeline with one threshold set, so two surfaces can never disagree on
// what the rolling average or days-to-critical is.
type Analyzer struct {
	config   *Config
	store    ReadingStore
	roadRisk *RoadRiskClient
	logger   *Logger

	// now is injectable for tests
	now func() time.Time
}

// NewAnalyzer creates a new analyzer. roadRisk may be nil when the
// road-risk adjustment is disabled.
func NewAnalyzer(config *Config, store ReadingStore, roadRisk *RoadRiskClient, logger *Logger) *Analyzer {
	return &Analyzer{
		config:   config,
		store:    store,
		roadRisk: roadRisk,
		logger:   logger,
		now:      time.Now,
	}
}

// AnalyzeAsset runs the full pipeline for one asset: fetch, normalize,
// classify, trend, baseline, anomaly, prediction, recommendation.
//
// Insufficient data is not an error: the returned analysis carries explicit
// unknowns (nil days remaining, unknown urgency). Errors are reserved for
// hard failures: the store call failing, or capacity-dependent math being
// configured without a capacity.
func (a *Analyzer) AnalyzeAsset(asset Asset) (*AssetAnalysis, error) {
	now := a.now()
	logger := a.logger.WithAsset(asset.ID)

	from := now.AddDate(0, 0, -a.config.BaselineWindowDays)
	logger.LogStoreQuery("fetch_readings", asset.ID)
	rows, err := a.store.FetchReadings(asset.ID, from, now)
	if err != nil {
		return nil, err
	}

	series := NormalizeReadings(rows)
	thresholds := a.config.Thresholds

	analysis := &AssetAnalysis{
		Asset:  asset,
		Series: series,
		Summary: AnalyticsSummary{
			AssetID:      asset.ID,
			GeneratedAt:  now,
			WindowDays:   a.config.WindowDays,
			Trend:        TrendStable,
			ReadingCount: len(series),
		},
		Prediction: UnknownPrediction(asset),
	}

	if len(series) < 2 {
		logger.Info("Insufficient readings for analytics", "readings", len(series))
		return analysis, nil
	}

	unit := chooseUnit(series, asset.CapacityLiters)

	intervals, err := ClassifyIntervals(series, unit, asset.CapacityLiters, thresholds)
	if err != nil {
		return nil, err
	}
	analysis.Intervals = intervals
	analysis.Summary.RefillCount = RefillCount(intervals)
	logger.LogAnalysisStage("classification")

	windowStart := now.AddDate(0, 0, -a.config.WindowDays)
	reliability := ScoreReliability(series.Window(windowStart, now), float64(a.config.WindowDays), now)
	analysis.Summary.Reliability = reliability

	rollingAvg := RollingAverage(intervals, float64(thresholds.RollingWindowDays), now)
	analysis.Summary.RollingAvgPerDay = rollingAvg
	analysis.Summary.Trend = WeeklyTrend(intervals, thresholds, now)
	analysis.Summary.PrevDayUsage = PreviousDayUsage(intervals, rollingAvg, now)
	logger.LogAnalysisStage("trend")

	baseline := ComputeBaseline(intervals, a.config.BaselineWindowDays, thresholds.MinBaselineSamples)
	analysis.Summary.Baseline = baseline

	// Device-offline readings are excluded from the observed rate before
	// the ratio comparison; a device reporting stale levels while offline
	// must not feed the anomaly decision
	onlineIntervals, err := ClassifyIntervals(series.OnlineOnly(), unit, asset.CapacityLiters, thresholds)
	if err != nil {
		return nil, err
	}
	observed := RollingAverage(onlineIntervals, float64(thresholds.RollingWindowDays), now)

	anomaly := DetectAnomaly(observed, onlineIntervals, baseline,
		thresholds.MultiplierFor(asset.Industry), thresholds.SevereFactor, thresholds.LeakMinIntervals)
	analysis.Summary.Anomaly = anomaly
	if anomaly != nil && anomaly.IsAnomalous {
		logger.LogAnomalyDetected(asset.ID, anomaly.Severity, anomaly.RatioToBaseline)
	}

	latest, _ := series.Latest()
	confidence := ConfidenceFor(reliability, latest.DeviceOnline)

	// Prediction runs on percent levels; a litres-only series without a
	// known capacity cannot be projected against a percent critical level
	currentPct, ok := latest.LevelIn(UnitPercent, asset.CapacityLiters)
	if !ok {
		logger.Info("Current level not expressible as percent, prediction unavailable")
		analysis.Prediction.Confidence = confidence
		return analysis, nil
	}
	analysis.Summary.CurrentLevelPct = &currentPct

	rollingAvgPct := rollingAvg
	if unit == UnitLiters {
		if asset.CapacityLiters <= 0 {
			analysis.Prediction.Confidence = confidence
			return analysis, nil
		}
		rollingAvgPct = rollingAvg / asset.CapacityLiters * 100
	}
	analysis.Summary.RollingAvgPerDay = rollingAvgPct

	prediction := PredictRefill(asset, currentPct, rollingAvgPct, thresholds, confidence, now)
	analysis.Prediction = prediction
	analysis.Summary.DaysToCritical = prediction.DaysRemaining
	analysis.Summary.PredictedEmptyDate = prediction.PredictedRefillDate
	logger.LogPrediction(asset.ID, prediction.Urgency, prediction.Confidence)

	// Delivery sizing needs a capacity; assets without one keep a nil
	// recommendation rather than a zero-litre order
	if asset.CapacityLiters > 0 {
		operations, err := a.store.FetchOperations(asset.ID, now)
		if err != nil {
			return nil, err
		}

		settings := a.config.SettingsFor(asset.CustomerID)
		extraBuffer := 0
		if a.roadRisk != nil {
			extraBuffer = a.roadRisk.ExtraLeadTimeDays(now, settings.LeadTimeDays)
		}

		recommendation, err := RecommendDelivery(prediction, asset, operations, settings, extraBuffer, now)
		if err != nil {
			return nil, err
		}
		analysis.Recommendation = recommendation
	}

	return analysis, nil
}

// chooseUnit picks the unit the pipeline computes in. Percent wins whenever
// the series can express it (directly or via capacity); otherwise the
// analytics run in litres and percent-based prediction stays unknown.
func chooseUnit(series Series, capacityLiters float64) LevelUnit {
	for _, r := range series {
		if _, ok := r.LevelIn(UnitPercent, capacityLiters); ok {
			return UnitPercent
		}
	}
	return UnitLiters
}
