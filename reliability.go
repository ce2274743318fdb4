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

// Reliability scoring weights and the score above which a series counts as
// good. One reading per day is treated as full sampling density.
const (
	reliabilityDensityWeight = 0.4
	reliabilityGapWeight     = 0.3
	reliabilityOnlineWeight  = 0.3
	reliabilityGoodScore     = 0.7
	targetReadingsPerDay     = 1.0
)

// ScoreReliability rates a series for prediction trustworthiness over the
// evaluation window: sampling density, the longest gap between readings,
// and the proportion of readings where the device reported online. The
// score feeds fleet confidence labels; it never gates the computation
// itself.
func ScoreReliability(series Series, windowDays float64, now time.Time) ReliabilityScore {
	if windowDays <= 0 || len(series) == 0 {
		return ReliabilityScore{}
	}

	score := ReliabilityScore{
		ReadingsPerDay: float64(len(series)) / windowDays,
	}

	online := 0
	var longestGap time.Duration
	for i, r := range series {
		if r.DeviceOnline {
			online++
		}
		if i > 0 {
			if gap := r.Timestamp.Sub(series[i-1].Timestamp); gap > longestGap {
				longestGap = gap
			}
		}
	}
	// The stretch from the last reading to now counts as a gap too; a
	// device that went silent a week ago scores accordingly
	if gap := now.Sub(series[len(series)-1].Timestamp); gap > longestGap {
		longestGap = gap
	}

	score.LongestGapDays = longestGap.Hours() / hoursPerDay
	score.OnlineRatio = float64(online) / float64(len(series))

	density := score.ReadingsPerDay / targetReadingsPerDay
	if density > 1 {
		density = 1
	}

	gapScore := 1 - score.LongestGapDays/windowDays
	if gapScore < 0 {
		gapScore = 0
	}

	score.Score = reliabilityDensityWeight*density +
		reliabilityGapWeight*gapScore +
		reliabilityOnlineWeight*score.OnlineRatio
	score.Good = score.Score >= reliabilityGoodScore

	return score
}

// ConfidenceFor maps a reliability score and the device's latest online
// state to the prediction confidence label: high needs an online device and
// a good score, low means offline or sparse data, medium is everything in
// between
func ConfidenceFor(score ReliabilityScore, deviceOnline bool) Confidence {
	switch {
	case deviceOnline && score.Good:
		return ConfidenceHigh
	case !deviceOnline || score.Score < 0.4:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}
