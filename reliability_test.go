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
	"testing"
	"time"
)

func TestScoreReliabilityDense(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	series := make(Series, 0, 8)
	for i := 7; i >= 0; i-- {
		level := 50.0
		series = append(series, Reading{
			Timestamp:    now.AddDate(0, 0, -i),
			LevelPercent: &level,
			DeviceOnline: true,
		})
	}

	score := ScoreReliability(series, 7, now)
	if !score.Good {
		t.Errorf("daily online readings should score good, got %f", score.Score)
	}
	if score.OnlineRatio != 1 {
		t.Errorf("expected online ratio 1, got %f", score.OnlineRatio)
	}
	if math.Abs(score.LongestGapDays-1) > 1e-9 {
		t.Errorf("expected longest gap 1 day, got %f", score.LongestGapDays)
	}
}

func TestScoreReliabilitySilentDevice(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	// Two readings, the last one 6 days ago: the stretch to now dominates
	level := 50.0
	series := Series{
		{Timestamp: now.AddDate(0, 0, -7), LevelPercent: &level, DeviceOnline: true},
		{Timestamp: now.AddDate(0, 0, -6), LevelPercent: &level, DeviceOnline: true},
	}

	score := ScoreReliability(series, 7, now)
	if math.Abs(score.LongestGapDays-6) > 1e-9 {
		t.Errorf("the gap from last reading to now must count, got %f", score.LongestGapDays)
	}
	if score.Good {
		t.Errorf("a device silent for 6 of 7 days must not score good, got %f", score.Score)
	}
}

func TestScoreReliabilityEmpty(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	score := ScoreReliability(nil, 7, now)
	if score.Score != 0 || score.Good {
		t.Errorf("empty series scores zero, got %+v", score)
	}
}

func TestConfidenceFor(t *testing.T) {
	good := ReliabilityScore{Score: 0.9, Good: true}
	middling := ReliabilityScore{Score: 0.55}
	poor := ReliabilityScore{Score: 0.3}

	if got := ConfidenceFor(good, true); got != ConfidenceHigh {
		t.Errorf("good score + online should be high, got %s", got)
	}
	if got := ConfidenceFor(good, false); got != ConfidenceLow {
		t.Errorf("offline device caps confidence at low, got %s", got)
	}
	if got := ConfidenceFor(poor, true); got != ConfidenceLow {
		t.Errorf("score below 0.4 is low, got %s", got)
	}
	if got := ConfidenceFor(middling, true); got != ConfidenceMedium {
		t.Errorf("middling online score is medium, got %s", got)
	}
}
