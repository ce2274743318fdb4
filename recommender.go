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

// RecommendDelivery turns a refill prediction into an order recommendation:
// when to order and how much, given the customer's lead time, any extra
// road-risk buffer, and upcoming operational demand spikes.
//
// The decision buffer is raw days-to-critical minus lead time minus the
// extra buffer. An upcoming operation whose fuel impact exceeds the spike
// threshold shrinks the buffer by the impact ratio, pulling the order date
// forward; the strongest such operation wins and is reported as the
// recommendation's operationType.
//
// Capacity is required for volume sizing; a missing capacity is a hard
// failure rather than a silent zero-volume order.
func RecommendDelivery(prediction RefillPrediction, asset Asset, operations []OperationWindow, settings CustomerSettings, extraBufferDays int, now time.Time) (*DeliveryRecommendation, error) {
	if asset.CapacityLiters <= 0 {
		return nil, &ValidationError{
			Field:   "capacity_liters",
			Message: "capacity is required to size a delivery",
		}
	}

	recommendation := &DeliveryRecommendation{
		RecommendedVolume: topUpVolume(prediction.CurrentLevelPct, settings.TargetLevelPct, asset.CapacityLiters),
	}

	if prediction.DaysRemaining == nil {
		if prediction.Urgency == UrgencyCritical {
			// Already at/below critical: order now
			orderDate := now
			recommendation.Urgency = UrgencyCritical
			recommendation.RecommendedOrderDate = &orderDate
			buffer := 0.0
			recommendation.BufferDays = &buffer
			return recommendation, nil
		}
		// No consumption rate: timing is unknowable
		recommendation.Urgency = UrgencyUnknown
		return recommendation, nil
	}

	buffer := *prediction.DaysRemaining - float64(settings.LeadTimeDays) - float64(extraBufferDays)

	if op, ok := strongestSpike(operations, settings.SpikeThresholdMultiplier, now, prediction.PredictedRefillDate); ok {
		// Demand during the operation scales by its impact multiplier, so
		// the remaining days shrink by the same ratio
		buffer = buffer * settings.SpikeThresholdMultiplier / op.FuelImpact
		opType := op.Type
		recommendation.OperationType = &opType
	}

	if buffer < 0 {
		buffer = 0
	}

	orderDate := now.AddDate(0, 0, int(buffer))
	recommendation.Urgency = urgencyFromBuffer(buffer)
	recommendation.RecommendedOrderDate = &orderDate
	recommendation.BufferDays = &buffer

	return recommendation, nil
}

// topUpVolume is the litres needed to bring the asset to the target level
func topUpVolume(currentPct, targetPct, capacityLiters float64) float64 {
	deficit := targetPct - currentPct
	if deficit <= 0 {
		return 0
	}
	return deficit / 100 * capacityLiters
}

// strongestSpike finds the operation with the highest fuel impact above the
// spike threshold whose window overlaps [now, horizon]. A nil horizon means
// any future operation qualifies.
func strongestSpike(operations []OperationWindow, spikeThreshold float64, now time.Time, horizon *time.Time) (OperationWindow, bool) {
	var best OperationWindow
	found := false
	for _, op := range operations {
		if op.FuelImpact <= spikeThreshold {
			continue
		}
		if op.EndAt.Before(now) {
			continue
		}
		if horizon != nil && op.StartAt.After(*horizon) {
			continue
		}
		if !found || op.FuelImpact > best.FuelImpact {
			best = op
			found = true
		}
	}
	return best, found
}
