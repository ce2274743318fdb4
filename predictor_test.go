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
	"testing"
	"time"
)

func TestPredictDaysRemaining(t *testing.T) {
	days := PredictDaysRemaining(40, 20, 5)
	if days == nil {
		t.Fatalf("expected a projection")
	}
	if *days != 4.0 {
		t.Errorf("(40-20)/5 should be 4.0 days, got %f", *days)
	}

	// Rounded to one decimal
	days = PredictDaysRemaining(50, 20, 7)
	if days == nil || *days != 4.3 {
		t.Errorf("expected 4.3 after rounding, got %v", days)
	}
}

func TestPredictDaysRemainingNilCases(t *testing.T) {
	if days := PredictDaysRemaining(40, 20, 0); days != nil {
		t.Errorf("zero consumption rate must yield nil, not %f", *days)
	}
	if days := PredictDaysRemaining(40, 20, -1); days != nil {
		t.Errorf("negative rate must yield nil")
	}
	if days := PredictDaysRemaining(15, 20, 5); days != nil {
		t.Errorf("level already below critical must yield nil, not %f", *days)
	}
	if days := PredictDaysRemaining(20, 20, 5); days != nil {
		t.Errorf("level exactly at critical must yield nil")
	}
}

func TestPredictRefillUrgency(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	thresholds := DefaultThresholds()
	asset := Asset{ID: "tank-1", CustomerID: "acme"}

	cases := []struct {
		name    string
		current float64
		rate    float64
		urgency Urgency
		hasDays bool
	}{
		{"normal", 60, 5, UrgencyNormal, true},     // 8 days
		{"warning", 30, 5, UrgencyWarning, true},   // 2 days
		{"critical rate", 21, 5, UrgencyWarning, true}, // 0.2 days, above zero
		{"below critical", 10, 5, UrgencyCritical, false},
		{"no rate", 60, 0, UrgencyUnknown, false},
	}

	for _, tc := range cases {
		p := PredictRefill(asset, tc.current, tc.rate, thresholds, ConfidenceMedium, now)
		if p.Urgency != tc.urgency {
			t.Errorf("%s: expected urgency %s, got %s", tc.name, tc.urgency, p.Urgency)
		}
		if (p.DaysRemaining != nil) != tc.hasDays {
			t.Errorf("%s: expected hasDays=%v, got %v", tc.name, tc.hasDays, p.DaysRemaining)
		}
		if (p.PredictedRefillDate != nil) != tc.hasDays {
			t.Errorf("%s: date must track days remaining", tc.name)
		}
	}
}

func TestPredictRefillDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	asset := Asset{ID: "tank-1"}

	p := PredictRefill(asset, 60, 5, DefaultThresholds(), ConfidenceHigh, now)
	if p.PredictedRefillDate == nil {
		t.Fatalf("expected a predicted date")
	}
	want := now.AddDate(0, 0, 8)
	if !p.PredictedRefillDate.Equal(want) {
		t.Errorf("expected %v, got %v", want, *p.PredictedRefillDate)
	}
}

func TestPredictRefillAssetCriticalOverride(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	asset := Asset{ID: "tank-1", CriticalLevelPct: 40}

	// Default critical is 20, but the asset's own floor is 40
	p := PredictRefill(asset, 50, 5, DefaultThresholds(), ConfidenceHigh, now)
	if p.DaysRemaining == nil || *p.DaysRemaining != 2.0 {
		t.Errorf("expected 2.0 days against the asset floor, got %v", p.DaysRemaining)
	}
}

func TestUnknownPrediction(t *testing.T) {
	asset := Asset{ID: "tank-1", Name: "North Tank", CustomerID: "acme"}

	p := UnknownPrediction(asset)
	if p.Urgency != UrgencyUnknown || p.Confidence != ConfidenceLow {
		t.Errorf("unknown prediction must be unknown/low, got %s/%s", p.Urgency, p.Confidence)
	}
	if p.DaysRemaining != nil || p.PredictedRefillDate != nil {
		t.Errorf("unknown prediction must carry nil projections")
	}
	if p.AssetID != "tank-1" || p.CustomerID != "acme" {
		t.Errorf("asset identity must survive: %+v", p)
	}
}
