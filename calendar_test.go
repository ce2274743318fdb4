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

func TestAnalyzeFleetIncludesFailedAssets(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	store := &fakeStore{
		rows: map[string][]RawRow{
			"good": dailyDrainRows(now, 15, 80, 2, true),
		},
		failFor: map[string]bool{"bad": true},
	}

	analyzer := NewAnalyzer(testConfig(), store, nil, NewLogger(false))
	analyzer.now = func() time.Time { return now }

	assets := []Asset{
		{ID: "good", CustomerID: "acme", CapacityLiters: 1000},
		{ID: "bad", CustomerID: "acme"},
	}

	calendar, analyses := analyzer.AnalyzeFleet(assets)

	if len(calendar.Predictions) != 2 {
		t.Fatalf("every asset must appear in the batch, got %d predictions", len(calendar.Predictions))
	}
	if len(analyses) != 1 {
		t.Errorf("only the successful asset has a full analysis, got %d", len(analyses))
	}

	var bad *RefillPrediction
	for i := range calendar.Predictions {
		if calendar.Predictions[i].AssetID == "bad" {
			bad = &calendar.Predictions[i]
		}
	}
	if bad == nil {
		t.Fatalf("failed asset missing from predictions")
	}
	if bad.Urgency != UrgencyUnknown || bad.Confidence != ConfidenceLow {
		t.Errorf("failed asset should be unknown/low, got %s/%s", bad.Urgency, bad.Confidence)
	}

	if calendar.ByUrgency[UrgencyUnknown] != 1 || calendar.ByUrgency[UrgencyNormal] != 1 {
		t.Errorf("unexpected urgency counts: %+v", calendar.ByUrgency)
	}
}

func TestBuildFleetCalendarBuckets(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	d1 := now.AddDate(0, 0, 2)
	d2 := now.AddDate(0, 0, 5)

	predictions := []RefillPrediction{
		{AssetID: "a", CustomerID: "acme", PredictedRefillDate: &d2, Urgency: UrgencyNormal},
		{AssetID: "b", CustomerID: "acme", PredictedRefillDate: &d1, Urgency: UrgencyWarning},
		{AssetID: "c", CustomerID: "globex", PredictedRefillDate: &d1, Urgency: UrgencyWarning},
		{AssetID: "d", CustomerID: "globex", Urgency: UrgencyUnknown},
	}

	calendar := BuildFleetCalendar(predictions, now)

	if len(calendar.Buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(calendar.Buckets))
	}
	if calendar.Buckets[0].Date != d1.Format("2006-01-02") {
		t.Errorf("buckets must be date-ordered, first was %s", calendar.Buckets[0].Date)
	}
	if len(calendar.Buckets[0].Predictions) != 2 {
		t.Errorf("expected 2 assets on the first date, got %d", len(calendar.Buckets[0].Predictions))
	}
	if calendar.Buckets[2].Date != unscheduledBucket {
		t.Errorf("unscheduled bucket must sort last, got %s", calendar.Buckets[2].Date)
	}

	if calendar.ByUrgency[UrgencyWarning] != 2 || calendar.ByUrgency[UrgencyUnknown] != 1 {
		t.Errorf("unexpected urgency counts: %+v", calendar.ByUrgency)
	}
}

func TestPredictionFilters(t *testing.T) {
	predictions := []RefillPrediction{
		{AssetID: "a", CustomerID: "acme", Urgency: UrgencyCritical},
		{AssetID: "b", CustomerID: "globex", Urgency: UrgencyNormal},
		{AssetID: "c", CustomerID: "acme", Urgency: UrgencyCritical},
	}

	critical := FilterByUrgency(predictions, UrgencyCritical)
	if len(critical) != 2 {
		t.Errorf("expected 2 critical predictions, got %d", len(critical))
	}

	acme := FilterByCustomer(predictions, "acme")
	if len(acme) != 2 {
		t.Errorf("expected 2 acme predictions, got %d", len(acme))
	}

	customers := UniqueCustomers(predictions)
	if len(customers) != 2 || customers[0] != "acme" || customers[1] != "globex" {
		t.Errorf("expected sorted [acme globex], got %v", customers)
	}
}
