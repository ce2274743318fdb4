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

const hoursPerDay = 24.0

// ClassifyIntervals walks consecutive reading pairs of a normalized series
// and labels each interval consumption, refill or noise. This is the single
// source of truth for classification; trend, baseline and prediction all
// consume its output rather than re-deriving deltas themselves.
//
// Policy, in order:
//  1. non-positive or over-long duration -> noise (too sparse to trust)
//  2. level rose by at least the refill threshold -> refill
//  3. level fell -> consumption
//  4. flat or a sub-threshold rise -> noise
func ClassifyIntervals(series Series, unit LevelUnit, capacityLiters float64, thresholds Thresholds) ([]ConsumptionInterval, error) {
	if len(series) < 2 {
		return nil, nil
	}

	refillDelta, err := thresholds.RefillDelta(unit, capacityLiters)
	if err != nil {
		return nil, err
	}

	intervals := make([]ConsumptionInterval, 0, len(series)-1)

	prev, prevOK := levelAt(series, 0, unit, capacityLiters)
	prevIdx := 0
	for i := 1; i < len(series); i++ {
		curr, currOK := levelAt(series, i, unit, capacityLiters)
		if !currOK {
			continue
		}
		if !prevOK {
			prev, prevIdx, prevOK = curr, i, true
			continue
		}

		start := series[prevIdx].Timestamp
		end := series[i].Timestamp
		duration := end.Sub(start).Hours() / hoursPerDay

		// Positive delta = level fell = consumption
		delta := prev - curr

		interval := ConsumptionInterval{
			Start:        start,
			End:          end,
			DurationDays: duration,
			DeltaLevel:   delta,
		}

		switch {
		case duration <= 0 || duration > thresholds.MaxIntervalDays:
			interval.Class = ClassNoise
		case -delta >= refillDelta:
			interval.Class = ClassRefill
		case delta > 0:
			interval.Class = ClassConsumption
		default:
			interval.Class = ClassNoise
		}

		intervals = append(intervals, interval)
		prev, prevIdx = curr, i
	}

	return intervals, nil
}

// levelAt reads the level of series[i] in the requested unit
func levelAt(series Series, i int, unit LevelUnit, capacityLiters float64) (float64, bool) {
	return series[i].LevelIn(unit, capacityLiters)
}

// ConsumptionOnly filters to consumption-classified intervals
func ConsumptionOnly(intervals []ConsumptionInterval) []ConsumptionInterval {
	var out []ConsumptionInterval
	for _, ci := range intervals {
		if ci.Class == ClassConsumption {
			out = append(out, ci)
		}
	}
	return out
}

// RefillCount returns how many intervals were classified as refills
func RefillCount(intervals []ConsumptionInterval) int {
	count := 0
	for _, ci := range intervals {
		if ci.Class == ClassRefill {
			count++
		}
	}
	return count
}

// LastRefill returns the most recent refill interval, or false when the
// window contains none
func LastRefill(intervals []ConsumptionInterval) (ConsumptionInterval, bool) {
	for i := len(intervals) - 1; i >= 0; i-- {
		if intervals[i].Class == ClassRefill {
			return intervals[i], true
		}
	}
	return ConsumptionInterval{}, false
}
