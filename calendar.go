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
	"sort"
	"time"
)

// CalendarBucket groups predictions landing on the same predicted date
type CalendarBucket struct {
	Date        string             `json:"date"` // YYYY-MM-DD; "unscheduled" for unknowable dates
	Predictions []RefillPrediction `json:"predictions"`
}

// FleetCalendar is the fleet-wide view consumed by calendar and list UIs
type FleetCalendar struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	CustomerID  string             `json:"customerId,omitempty"`
	Predictions []RefillPrediction `json:"predictions"`
	Buckets     []CalendarBucket   `json:"buckets"`
	ByUrgency   map[Urgency]int    `json:"byUrgency"`
}

const unscheduledBucket = "unscheduled"

// AnalyzeFleet runs the per-asset pipeline across a fleet. A single asset
// failing (store error, bad metadata) is downgraded to an unknown entry
// and logged; the batch always returns one prediction per asset.
func (a *Analyzer) AnalyzeFleet(assets []Asset) (*FleetCalendar, []*AssetAnalysis) {
	predictions := make([]RefillPrediction, 0, len(assets))
	analyses := make([]*AssetAnalysis, 0, len(assets))

	for _, asset := range assets {
		analysis, err := a.AnalyzeAsset(asset)
		if err != nil {
			a.logger.Warn("Asset analysis failed, including as unknown",
				"asset_id", asset.ID,
				"error", err,
			)
			predictions = append(predictions, UnknownPrediction(asset))
			continue
		}
		predictions = append(predictions, analysis.Prediction)
		analyses = append(analyses, analysis)
	}

	calendar := BuildFleetCalendar(predictions, a.now())
	calendar.CustomerID = a.config.CustomerID
	return calendar, analyses
}

// BuildFleetCalendar groups a prediction list into date buckets and urgency
// counts. Pure function over the predictions; no new computation happens
// here.
func BuildFleetCalendar(predictions []RefillPrediction, now time.Time) *FleetCalendar {
	calendar := &FleetCalendar{
		GeneratedAt: now,
		Predictions: predictions,
		ByUrgency:   make(map[Urgency]int),
	}

	byDate := make(map[string][]RefillPrediction)
	for _, p := range predictions {
		calendar.ByUrgency[p.Urgency]++

		key := unscheduledBucket
		if p.PredictedRefillDate != nil {
			key = p.PredictedRefillDate.Format("2006-01-02")
		}
		byDate[key] = append(byDate[key], p)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		if date != unscheduledBucket {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	if _, ok := byDate[unscheduledBucket]; ok {
		dates = append(dates, unscheduledBucket)
	}

	for _, date := range dates {
		calendar.Buckets = append(calendar.Buckets, CalendarBucket{
			Date:        date,
			Predictions: byDate[date],
		})
	}

	return calendar
}

// FilterByUrgency returns the predictions in the given urgency tier
func FilterByUrgency(predictions []RefillPrediction, urgency Urgency) []RefillPrediction {
	var out []RefillPrediction
	for _, p := range predictions {
		if p.Urgency == urgency {
			out = append(out, p)
		}
	}
	return out
}

// FilterByCustomer returns the predictions belonging to one customer
func FilterByCustomer(predictions []RefillPrediction, customerID string) []RefillPrediction {
	var out []RefillPrediction
	for _, p := range predictions {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out
}

// UniqueCustomers returns the sorted set of customer IDs present in a
// prediction list
func UniqueCustomers(predictions []RefillPrediction) []string {
	seen := make(map[string]bool)
	for _, p := range predictions {
		if p.CustomerID != "" {
			seen[p.CustomerID] = true
		}
	}

	customers := make([]string, 0, len(seen))
	for id := range seen {
		customers = append(customers, id)
	}
	sort.Strings(customers)
	return customers
}
