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
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
)

// Reporter generates markdown reports from analysis results
type Reporter struct {
	logger *Logger
}

// NewReporter creates a new report generator
func NewReporter(logger *Logger) *Reporter {
	return &Reporter{
		logger: logger,
	}
}

// GenerateFleetReport creates a markdown report for a fleet run. An empty
// outputPath writes to stdout.
func (r *Reporter) GenerateFleetReport(calendar *FleetCalendar, analyses []*AssetAnalysis, outputPath string) error {
	r.logger.Info("Generating fleet report", "assets", len(calendar.Predictions))

	writer, cleanup, err := r.openWriter(outputPath)
	if err != nil {
		return err
	}
	defer cleanup()

	r.writeFleetHeader(writer, calendar)
	r.writeFleetSummary(writer, calendar)
	r.writeRefillCalendar(writer, calendar)
	r.writeAssetTable(writer, analyses)
	r.writeAnomalies(writer, analyses)
	r.writeRecommendations(writer, analyses)
	r.writeFooter(writer)

	if outputPath != "" {
		r.logger.Info("Report saved", "path", outputPath)
	}

	return nil
}

// GenerateAssetReport creates a markdown report for a single asset
func (r *Reporter) GenerateAssetReport(analysis *AssetAnalysis, outputPath string) error {
	r.logger.Info("Generating asset report", "asset_id", analysis.Asset.ID)

	writer, cleanup, err := r.openWriter(outputPath)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(writer, "# Tank Analysis: %s\n\n", assetLabel(analysis.Asset))
	fmt.Fprintf(writer, "**Generated:** %s\n\n", analysis.Summary.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "**tankwatch version:** %s\n\n", GetVersion())
	fmt.Fprintf(writer, "---\n\n")

	r.writeAssetDetail(writer, analysis)
	r.writeAnomalies(writer, []*AssetAnalysis{analysis})
	r.writeRecommendations(writer, []*AssetAnalysis{analysis})
	r.writeFooter(writer)

	if outputPath != "" {
		r.logger.Info("Report saved", "path", outputPath)
	}

	return nil
}

// openWriter resolves the output target; stdout needs no cleanup
func (r *Reporter) openWriter(outputPath string) (io.Writer, func(), error) {
	if outputPath == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, &StorageError{
			Operation: "create_report",
			Path:      outputPath,
			Err:       err,
		}
	}
	return file, func() { file.Close() }, nil
}

// writeFleetHeader writes the report header
func (r *Reporter) writeFleetHeader(w io.Writer, calendar *FleetCalendar) {
	fmt.Fprintf(w, "# Fleet Refill Forecast\n\n")
	fmt.Fprintf(w, "**Generated:** %s\n\n", calendar.GeneratedAt.Format("2006-01-02 15:04:05"))
	if calendar.CustomerID != "" {
		fmt.Fprintf(w, "**Customer:** %s\n\n", calendar.CustomerID)
	}
	fmt.Fprintf(w, "**tankwatch version:** %s\n\n", GetVersion())
	fmt.Fprintf(w, "---\n\n")
}

// writeFleetSummary writes the urgency distribution section
func (r *Reporter) writeFleetSummary(w io.Writer, calendar *FleetCalendar) {
	fmt.Fprintf(w, "## 📊 Summary\n\n")
	fmt.Fprintf(w, "**Assets analyzed:** %d\n\n", len(calendar.Predictions))

	fmt.Fprintf(w, "| Urgency | Assets |\n")
	fmt.Fprintf(w, "|---------|--------|\n")
	fmt.Fprintf(w, "| 🔴 Critical | %d |\n", calendar.ByUrgency[UrgencyCritical])
	fmt.Fprintf(w, "| 🟡 Warning | %d |\n", calendar.ByUrgency[UrgencyWarning])
	fmt.Fprintf(w, "| 🟢 Normal | %d |\n", calendar.ByUrgency[UrgencyNormal])
	fmt.Fprintf(w, "| ⚪ Unknown | %d |\n", calendar.ByUrgency[UrgencyUnknown])
	fmt.Fprintf(w, "\n")

	if calendar.ByUrgency[UrgencyCritical] > 0 {
		fmt.Fprintf(w, "> ⚠️ **%d asset(s) need immediate attention** - they are at or past their safety buffer.\n\n",
			calendar.ByUrgency[UrgencyCritical])
	}
}

// writeRefillCalendar writes the date-bucketed refill calendar
func (r *Reporter) writeRefillCalendar(w io.Writer, calendar *FleetCalendar) {
	if len(calendar.Buckets) == 0 {
		return
	}

	fmt.Fprintf(w, "## 📅 Refill Calendar\n\n")

	for _, bucket := range calendar.Buckets {
		label := bucket.Date
		if label == unscheduledBucket {
			label = "Unscheduled (no usable prediction)"
		}
		fmt.Fprintf(w, "### %s\n\n", label)

		for _, p := range bucket.Predictions {
			name := p.AssetName
			if name == "" {
				name = p.AssetID
			}
			fmt.Fprintf(w, "- %s %s", urgencyIcon(p.Urgency), name)
			if p.DaysRemaining != nil {
				fmt.Fprintf(w, " (%.1f days remaining, %s confidence)", *p.DaysRemaining, p.Confidence)
			} else {
				fmt.Fprintf(w, " (%s confidence)", p.Confidence)
			}
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "\n")
	}
}

// writeAssetTable writes the per-asset metrics table
func (r *Reporter) writeAssetTable(w io.Writer, analyses []*AssetAnalysis) {
	if len(analyses) == 0 {
		return
	}

	fmt.Fprintf(w, "## ⛽ Asset Details\n\n")
	fmt.Fprintf(w, "| Asset | Level | Daily Use | Trend | Days Left | Refill By | Confidence |\n")
	fmt.Fprintf(w, "|-------|-------|-----------|-------|-----------|-----------|------------|\n")

	for _, a := range analyses {
		level := "-"
		if a.Summary.CurrentLevelPct != nil {
			level = fmt.Sprintf("%.1f%%", *a.Summary.CurrentLevelPct)
		}

		daysLeft := "-"
		if a.Summary.DaysToCritical != nil {
			daysLeft = fmt.Sprintf("%.1f", *a.Summary.DaysToCritical)
		}

		refillBy := "-"
		if a.Prediction.PredictedRefillDate != nil {
			refillBy = a.Prediction.PredictedRefillDate.Format("2006-01-02")
		}

		fmt.Fprintf(w, "| %s %s | %s | %.2f %%/day | %s | %s | %s | %s |\n",
			urgencyIcon(a.Prediction.Urgency),
			assetLabel(a.Asset),
			level,
			a.Summary.RollingAvgPerDay,
			trendIcon(a.Summary.Trend),
			daysLeft,
			refillBy,
			a.Prediction.Confidence,
		)
	}
	fmt.Fprintf(w, "\n")
}

// writeAssetDetail writes the full metric breakdown for one asset
func (r *Reporter) writeAssetDetail(w io.Writer, a *AssetAnalysis) {
	fmt.Fprintf(w, "## 📊 Analytics\n\n")
	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")

	if a.Summary.CurrentLevelPct != nil {
		fmt.Fprintf(w, "| ⛽ Current Level | %.1f%% |\n", *a.Summary.CurrentLevelPct)
		if a.Asset.CapacityLiters > 0 {
			litres := *a.Summary.CurrentLevelPct / 100 * a.Asset.CapacityLiters
			fmt.Fprintf(w, "| 🛢️ Current Volume | %s L of %s L |\n",
				humanize.CommafWithDigits(litres, 0),
				humanize.CommafWithDigits(a.Asset.CapacityLiters, 0))
		}
	}

	fmt.Fprintf(w, "| 📉 Rolling Average | %.2f %%/day (%dd window) |\n",
		a.Summary.RollingAvgPerDay, a.Summary.WindowDays)
	fmt.Fprintf(w, "| 📆 Previous Day Usage | %.2f %%/day |\n", a.Summary.PrevDayUsage)
	fmt.Fprintf(w, "| %s Trend | %s |\n", trendIcon(a.Summary.Trend), a.Summary.Trend)

	if a.Summary.Baseline != nil {
		fmt.Fprintf(w, "| 📐 Baseline | %.2f ± %.2f %%/day (%d samples) |\n",
			a.Summary.Baseline.MeanDailyRate,
			a.Summary.Baseline.StddevDailyRate,
			a.Summary.Baseline.SampleCount)
		if a.Asset.CapacityLiters > 0 {
			if lb, err := a.Summary.Baseline.InLiters(a.Asset.CapacityLiters); err == nil && lb != nil {
				fmt.Fprintf(w, "| 🛢️ Baseline Volume | %s ± %s L/day |\n",
					humanize.CommafWithDigits(lb.MeanDailyRate, 0),
					humanize.CommafWithDigits(lb.StddevDailyRate, 0))
			}
		}
	} else {
		fmt.Fprintf(w, "| 📐 Baseline | *insufficient history* |\n")
	}

	if a.Summary.DaysToCritical != nil {
		fmt.Fprintf(w, "| ⏳ Days to Critical | %.1f |\n", *a.Summary.DaysToCritical)
	} else {
		fmt.Fprintf(w, "| ⏳ Days to Critical | *unknown* |\n")
	}
	if a.Prediction.PredictedRefillDate != nil {
		fmt.Fprintf(w, "| 📅 Predicted Refill Date | %s |\n",
			a.Prediction.PredictedRefillDate.Format("2006-01-02"))
	}

	fmt.Fprintf(w, "| %s Urgency | %s |\n", urgencyIcon(a.Prediction.Urgency), a.Prediction.Urgency)
	fmt.Fprintf(w, "| 🎯 Confidence | %s |\n", a.Prediction.Confidence)
	fmt.Fprintf(w, "| 📡 Data Reliability | %.2f (%.1f readings/day, %.0f%% online) |\n",
		a.Summary.Reliability.Score,
		a.Summary.Reliability.ReadingsPerDay,
		a.Summary.Reliability.OnlineRatio*100)
	fmt.Fprintf(w, "| 🔄 Refills in Window | %d |\n", a.Summary.RefillCount)
	fmt.Fprintf(w, "\n")
}

// writeAnomalies writes the anomaly section for assets with findings
func (r *Reporter) writeAnomalies(w io.Writer, analyses []*AssetAnalysis) {
	var flagged []*AssetAnalysis
	for _, a := range analyses {
		if a.Summary.Anomaly != nil && a.Summary.Anomaly.IsAnomalous {
			flagged = append(flagged, a)
		}
	}
	if len(flagged) == 0 {
		return
	}

	fmt.Fprintf(w, "## 🔍 Consumption Anomalies\n\n")
	fmt.Fprintf(w, "| Asset | Severity | vs Baseline | Possible Leak |\n")
	fmt.Fprintf(w, "|-------|----------|-------------|---------------|\n")

	for _, a := range flagged {
		anomaly := a.Summary.Anomaly
		icon := "⚠️"
		if anomaly.Severity == SeveritySevere {
			icon = "🚨"
		}

		leak := "-"
		if anomaly.PotentialLeak {
			leak = "🚰 yes"
		}

		fmt.Fprintf(w, "| %s | %s %s | %.1fx | %s |\n",
			assetLabel(a.Asset),
			icon,
			anomaly.Severity,
			anomaly.RatioToBaseline,
			leak,
		)
	}
	fmt.Fprintf(w, "\n")

	for _, a := range flagged {
		if a.Summary.Anomaly.PotentialLeak {
			fmt.Fprintf(w, "> 🚰 **%s:** consumption has stayed above the anomaly threshold for multiple consecutive intervals. Inspect for leaks or unauthorized drawdown.\n\n",
				assetLabel(a.Asset))
		}
	}
}

// writeRecommendations writes the delivery recommendation section
func (r *Reporter) writeRecommendations(w io.Writer, analyses []*AssetAnalysis) {
	var recs []*AssetAnalysis
	for _, a := range analyses {
		if a.Recommendation != nil {
			recs = append(recs, a)
		}
	}
	if len(recs) == 0 {
		return
	}

	fmt.Fprintf(w, "## 🚚 Delivery Recommendations\n\n")

	for _, a := range recs {
		rec := a.Recommendation
		fmt.Fprintf(w, "### %s %s\n\n", urgencyIcon(rec.Urgency), assetLabel(a.Asset))

		if rec.RecommendedOrderDate != nil {
			fmt.Fprintf(w, "- **Order by:** %s\n", rec.RecommendedOrderDate.Format("2006-01-02"))
		} else {
			fmt.Fprintf(w, "- **Order by:** as soon as possible\n")
		}
		fmt.Fprintf(w, "- **Recommended volume:** %s L\n",
			humanize.CommafWithDigits(rec.RecommendedVolume, 0))
		if rec.BufferDays != nil {
			fmt.Fprintf(w, "- **Buffer after lead time:** %.1f days\n", *rec.BufferDays)
		}
		if rec.OperationType != nil {
			fmt.Fprintf(w, "- **Pulled forward for:** upcoming %s (elevated fuel demand expected)\n",
				*rec.OperationType)
		}
		fmt.Fprintf(w, "\n")
	}
}

// writeFooter writes the report footer
func (r *Reporter) writeFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n\n")
	fmt.Fprintf(w, "*Predictions are projections from historical consumption and may shift with operational changes, weather, and sensor reliability. Verify levels before dispatching deliveries.*\n\n")
	fmt.Fprintf(w, "*Generated by tankwatch*\n")
}

// assetLabel returns the display name for an asset
func assetLabel(a Asset) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// urgencyIcon returns the marker used for an urgency tier
func urgencyIcon(u Urgency) string {
	switch u {
	case UrgencyCritical:
		return "🔴"
	case UrgencyWarning:
		return "🟡"
	case UrgencyNormal:
		return "🟢"
	default:
		return "⚪"
	}
}

// trendIcon returns the marker used for a trend direction
func trendIcon(t TrendDirection) string {
	switch t {
	case TrendIncreasing:
		return "📈"
	case TrendDecreasing:
		return "📉"
	default:
		return "➡️"
	}
}
