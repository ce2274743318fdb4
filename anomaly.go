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

// DetectAnomaly compares a recent observed daily consumption rate against
// the baseline. The multiplier is industry-specific (mining tolerates more
// variance than a farm on a fixed routine); severe escalates at
// multiplier*severeFactor.
//
// A potential leak is reported separately from a one-off spike: the
// elevated ratio must be sustained across the trailing leakMinIntervals
// consumption intervals, which guards against a single noisy sample
// triggering an alert.
//
// Returns nil when no baseline is available; callers must treat that as
// "cannot assess", not as "no anomaly".
func DetectAnomaly(observed float64, recent []ConsumptionInterval, baseline *Baseline, multiplier, severeFactor float64, leakMinIntervals int) *AnomalyResult {
	if baseline == nil || baseline.MeanDailyRate <= 0 {
		return nil
	}

	ratio := observed / baseline.MeanDailyRate
	result := &AnomalyResult{
		RatioToBaseline: ratio,
		ThresholdUsed:   multiplier,
	}

	if ratio >= multiplier {
		result.IsAnomalous = true
		result.Severity = SeverityModerate
		if ratio >= multiplier*severeFactor {
			result.Severity = SeveritySevere
		}
	} else {
		result.Severity = SeverityNone
	}

	result.PotentialLeak = sustainedAboveBaseline(recent, baseline.MeanDailyRate*multiplier, leakMinIntervals)

	return result
}

// sustainedAboveBaseline reports whether the trailing run of consumption
// intervals all exceed the threshold rate for at least minRun intervals
func sustainedAboveBaseline(intervals []ConsumptionInterval, thresholdRate float64, minRun int) bool {
	if minRun <= 0 || thresholdRate <= 0 {
		return false
	}

	run := 0
	for i := len(intervals) - 1; i >= 0; i-- {
		ci := intervals[i]
		if ci.Class != ClassConsumption {
			continue
		}
		if ci.DailyRate() < thresholdRate {
			break
		}
		run++
		if run >= minRun {
			return true
		}
	}
	return false
}
