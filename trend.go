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

// RollingAverage computes the mean daily consumption rate over the trailing
// window: sum of consumed level over consumption-classified intervals ending
// within the window, divided by their summed duration. Returns exactly 0
// when no qualifying interval exists; callers distinguish "no consumption
// detected" from "cannot predict" via the predictor's nil handling.
func RollingAverage(intervals []ConsumptionInterval, windowDays float64, now time.Time) float64 {
	cutoff := now.Add(-time.Duration(windowDays * hoursPerDay * float64(time.Hour)))

	var totalDelta, totalDays float64
	for _, ci := range intervals {
		if ci.Class != ClassConsumption {
			continue
		}
		if ci.End.Before(cutoff) {
			continue
		}
		totalDelta += ci.DeltaLevel
		totalDays += ci.DurationDays
	}

	if totalDays <= 0 {
		return 0
	}
	return totalDelta / totalDays
}

// WeeklyTrend compares the last 7 days of consumption against the 7 days
// before that. The change threshold and minimum points per window come from
// the shared threshold set; with too few points in either window the trend
// defaults to stable rather than guessing from noise.
func WeeklyTrend(intervals []ConsumptionInterval, thresholds Thresholds, now time.Time) TrendDirection {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var recent, prior []ConsumptionInterval
	for _, ci := range intervals {
		if ci.Class != ClassConsumption {
			continue
		}
		switch {
		case ci.End.After(weekAgo):
			recent = append(recent, ci)
		case ci.End.After(twoWeeksAgo):
			prior = append(prior, ci)
		}
	}

	if len(recent) < thresholds.MinTrendPoints || len(prior) < thresholds.MinTrendPoints {
		return TrendStable
	}

	recentAvg := windowRate(recent)
	priorAvg := windowRate(prior)
	if priorAvg <= 0 {
		return TrendStable
	}

	change := (recentAvg - priorAvg) / priorAvg
	switch {
	case change > thresholds.TrendChange:
		return TrendIncreasing
	case change < -thresholds.TrendChange:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// windowRate is the duration-weighted daily rate of a set of intervals
func windowRate(intervals []ConsumptionInterval) float64 {
	var totalDelta, totalDays float64
	for _, ci := range intervals {
		totalDelta += ci.DeltaLevel
		totalDays += ci.DurationDays
	}
	if totalDays <= 0 {
		return 0
	}
	return totalDelta / totalDays
}

// PreviousDayUsage estimates yesterday's consumption from the most recent
// consumption interval that sits inside the last 48 hours and ends within
// the last 24. When no such pair exists it falls back to the rolling
// average, so the figure is always populated when any consumption is.
func PreviousDayUsage(intervals []ConsumptionInterval, rollingAvg float64, now time.Time) float64 {
	dayAgo := now.AddDate(0, 0, -1)
	twoDaysAgo := now.AddDate(0, 0, -2)

	for i := len(intervals) - 1; i >= 0; i-- {
		ci := intervals[i]
		if ci.Class != ClassConsumption {
			continue
		}
		if ci.End.Before(dayAgo) {
			break
		}
		if ci.Start.Before(twoDaysAgo) {
			continue
		}
		return ci.DailyRate()
	}

	return rollingAvg
}
