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
)

// ComputeBaseline builds the longer-horizon consumption profile used as the
// anomaly reference: mean and stddev of the per-interval daily rates over
// consumption-classified intervals only. Refills and noise are already
// excluded by classification. Returns nil below the minimum sample count;
// callers must treat a nil baseline as "cannot assess", never as zero.
func ComputeBaseline(intervals []ConsumptionInterval, windowDays int, minSamples int) *Baseline {
	rates := make([]float64, 0, len(intervals))
	for _, ci := range intervals {
		if ci.Class != ClassConsumption {
			continue
		}
		if ci.DurationDays <= 0 {
			continue
		}
		rates = append(rates, ci.DailyRate())
	}

	if len(rates) < minSamples {
		return nil
	}

	mean := calculateMean(rates)
	return &Baseline{
		MeanDailyRate:   mean,
		StddevDailyRate: calculateStdDev(rates, mean),
		SampleCount:     len(rates),
		WindowDays:      windowDays,
	}
}

// InLiters converts a percent-based baseline to absolute volume. Capacity
// is required; percent rates without a tank size are not convertible.
func (b *Baseline) InLiters(capacityLiters float64) (*Baseline, error) {
	if b == nil {
		return nil, nil
	}
	if capacityLiters <= 0 {
		return nil, &ValidationError{
			Field:   "capacity_liters",
			Message: "capacity is required to convert a baseline to litres",
		}
	}
	factor := capacityLiters / 100
	return &Baseline{
		MeanDailyRate:   b.MeanDailyRate * factor,
		StddevDailyRate: b.StddevDailyRate * factor,
		SampleCount:     b.SampleCount,
		WindowDays:      b.WindowDays,
	}, nil
}

// Statistical helper functions

// calculateMean calculates the mean of a slice of float64 values
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// calculateStdDev calculates the standard deviation
func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sumSquaredDiff := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	variance := sumSquaredDiff / float64(len(values))
	return math.Sqrt(variance)
}
