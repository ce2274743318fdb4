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
	"math"
	"time"
)

// PredictDaysRemaining projects how many days until the level reaches the
// critical threshold, rounded to one decimal. Returns nil when the rolling
// average shows no discernible consumption or the level already sits
// at/below critical. Both are "not computable", which must never collapse
// to 0 ("already empty").
func PredictDaysRemaining(currentLevel, criticalLevel, rollingAvg float64) *float64 {
	if rollingAvg <= 0 {
		return nil
	}
	if currentLevel <= criticalLevel {
		return nil
	}

	days := (currentLevel - criticalLevel) / rollingAvg
	days = math.Round(days*10) / 10
	if days < 0 {
		return nil
	}
	return &days
}

// PredictEmptyDate converts a days-remaining projection to a calendar date
func PredictEmptyDate(daysRemaining *float64, now time.Time) *time.Time {
	if daysRemaining == nil {
		return nil
	}
	date := now.Add(time.Duration(*daysRemaining * hoursPerDay * float64(time.Hour)))
	return &date
}

// urgencyFromBuffer maps decision-buffer days to an urgency tier
func urgencyFromBuffer(bufferDays float64) Urgency {
	switch {
	case bufferDays <= 0:
		return UrgencyCritical
	case bufferDays <= 3:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// PredictRefill builds the per-asset refill prediction from the canonical
// pipeline outputs. Urgency here is level-driven (raw days to critical);
// the delivery recommender applies lead-time and operational adjustments on
// top of it.
func PredictRefill(asset Asset, currentLevelPct float64, rollingAvg float64, thresholds Thresholds, confidence Confidence, now time.Time) RefillPrediction {
	critical := thresholds.CriticalLevelFor(asset)
	days := PredictDaysRemaining(currentLevelPct, critical, rollingAvg)

	prediction := RefillPrediction{
		AssetID:          asset.ID,
		AssetName:        asset.Name,
		CustomerID:       asset.CustomerID,
		CurrentLevelPct:  currentLevelPct,
		DailyConsumption: rollingAvg,
		DaysRemaining:    days,
		Confidence:       confidence,
	}

	if days == nil {
		if currentLevelPct <= critical {
			// Already at or below critical: maximal urgency even though
			// the projection itself is not computable
			prediction.Urgency = UrgencyCritical
		} else {
			prediction.Urgency = UrgencyUnknown
		}
		return prediction
	}

	prediction.PredictedRefillDate = PredictEmptyDate(days, now)
	prediction.Urgency = urgencyFromBuffer(*days)
	return prediction
}

// UnknownPrediction is the placeholder entry for an asset whose analysis
// failed or lacked data; fleet aggregation includes it instead of dropping
// the asset
func UnknownPrediction(asset Asset) RefillPrediction {
	return RefillPrediction{
		AssetID:    asset.ID,
		AssetName:  asset.Name,
		CustomerID: asset.CustomerID,
		Urgency:    UrgencyUnknown,
		Confidence: ConfidenceLow,
	}
}
