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
	"errors"
	"testing"
	"time"
)

func pctSeries(start time.Time, step time.Duration, levels ...float64) Series {
	series := make(Series, 0, len(levels))
	for i, level := range levels {
		l := level
		series = append(series, Reading{
			Timestamp:    start.Add(time.Duration(i) * step),
			LevelPercent: &l,
			DeviceOnline: true,
			Source:       SourceSensor,
		})
	}
	return series
}

func TestClassifyIntervalsPolicy(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	thresholds := DefaultThresholds()

	// 50 -> 45: consumption; 45 -> 85: refill (rise of 40 >= 10 points);
	// 85 -> 85: flat noise; 85 -> 88: sub-threshold rise, noise
	series := pctSeries(start, 24*time.Hour, 50, 45, 85, 85, 88)

	intervals, err := ClassifyIntervals(series, UnitPercent, 0, thresholds)
	if err != nil {
		t.Fatalf("ClassifyIntervals failed: %v", err)
	}
	if len(intervals) != 4 {
		t.Fatalf("expected 4 intervals, got %d", len(intervals))
	}

	wantClasses := []IntervalClass{ClassConsumption, ClassRefill, ClassNoise, ClassNoise}
	for i, want := range wantClasses {
		if intervals[i].Class != want {
			t.Errorf("interval %d: expected %s, got %s", i, want, intervals[i].Class)
		}
	}

	if intervals[0].DeltaLevel != 5 {
		t.Errorf("consumption delta should be positive when level falls, got %f", intervals[0].DeltaLevel)
	}
	if intervals[0].DailyRate() != 5 {
		t.Errorf("expected 5 points/day, got %f", intervals[0].DailyRate())
	}
}

func TestClassifyIntervalsSparseGapIsNoise(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	thresholds := DefaultThresholds()

	// A 10-day gap exceeds max_interval_days even though the level fell
	series := pctSeries(start, 10*24*time.Hour, 80, 40)

	intervals, err := ClassifyIntervals(series, UnitPercent, 0, thresholds)
	if err != nil {
		t.Fatalf("ClassifyIntervals failed: %v", err)
	}
	if len(intervals) != 1 || intervals[0].Class != ClassNoise {
		t.Errorf("over-long interval should be noise, got %+v", intervals)
	}
}

func TestClassifyIntervalsAbsoluteMode(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	thresholds := DefaultThresholds()
	thresholds.RefillMode = RefillModeAbsolute
	thresholds.RefillDeltaLiters = 200

	// 200 L on a 1000 L tank is 20 points; a 15-point rise stays noise,
	// a 25-point rise is a refill
	series := pctSeries(start, 24*time.Hour, 50, 65, 90)

	intervals, err := ClassifyIntervals(series, UnitPercent, 1000, thresholds)
	if err != nil {
		t.Fatalf("ClassifyIntervals failed: %v", err)
	}
	if intervals[0].Class != ClassNoise {
		t.Errorf("15-point rise below converted threshold should be noise, got %s", intervals[0].Class)
	}
	if intervals[1].Class != ClassRefill {
		t.Errorf("25-point rise above converted threshold should be refill, got %s", intervals[1].Class)
	}
}

func TestClassifyIntervalsAbsoluteModeNeedsCapacity(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	thresholds := DefaultThresholds()
	thresholds.RefillMode = RefillModeAbsolute

	series := pctSeries(start, 24*time.Hour, 50, 45)

	_, err := ClassifyIntervals(series, UnitPercent, 0, thresholds)
	if err == nil {
		t.Fatalf("absolute mode on a percent series without capacity must fail")
	}
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError, got %T", err)
	}
}

func TestRefillHelpers(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := pctSeries(start, 24*time.Hour, 50, 45, 85, 80, 95)

	intervals, err := ClassifyIntervals(series, UnitPercent, 0, DefaultThresholds())
	if err != nil {
		t.Fatalf("ClassifyIntervals failed: %v", err)
	}

	if got := RefillCount(intervals); got != 2 {
		t.Errorf("expected 2 refills, got %d", got)
	}
	if got := len(ConsumptionOnly(intervals)); got != 2 {
		t.Errorf("expected 2 consumption intervals, got %d", got)
	}

	last, ok := LastRefill(intervals)
	if !ok {
		t.Fatalf("expected a refill interval")
	}
	if last.DeltaLevel != -15 {
		t.Errorf("last refill should be the 80 -> 95 rise, got delta %f", last.DeltaLevel)
	}
}
