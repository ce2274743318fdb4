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
	"os"
	"path/filepath"

	charts "github.com/vicanso/go-charts/v2"
)

// ChartGenerator renders analytics charts to PNG files
type ChartGenerator struct {
	outputDir string
	theme     string
}

// NewChartGenerator creates a chart generator writing into outputDir
func NewChartGenerator(outputDir string) (*ChartGenerator, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, &StorageError{
			Operation: "create_chart_directory",
			Path:      outputDir,
			Err:       err,
		}
	}
	return &ChartGenerator{
		outputDir: outputDir,
		theme:     "light",
	}, nil
}

// GenerateLevelHistoryChart creates a line chart of an asset's level history
// as percent of capacity, and returns the written file path
func (cg *ChartGenerator) GenerateLevelHistoryChart(analysis *AssetAnalysis) (string, error) {
	var values []float64
	var labels []string

	for _, r := range analysis.Series {
		pct, ok := r.LevelIn(UnitPercent, analysis.Asset.CapacityLiters)
		if !ok {
			continue
		}
		values = append(values, pct)
		labels = append(labels, r.Timestamp.Format("Jan 2"))
	}

	if len(values) == 0 {
		return "", &DataError{
			DataType: "level_history",
			Message:  fmt.Sprintf("no percent-expressible readings for asset %s", analysis.Asset.ID),
		}
	}

	title := fmt.Sprintf("Tank Level History: %s", analysis.Asset.Name)
	if analysis.Asset.Name == "" {
		title = fmt.Sprintf("Tank Level History: %s", analysis.Asset.ID)
	}

	p, err := charts.LineRender(
		[][]float64{values},
		charts.PNGTypeOption(),
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc([]string{"Level (%)"}, charts.PositionRight),
		charts.ThemeOptionFunc(cg.theme),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render level history chart: %w", err)
	}

	return cg.writeChart(fmt.Sprintf("level_%s.png", analysis.Asset.ID), p)
}

// GenerateFleetUrgencyChart creates a bar chart of the fleet's urgency
// distribution and returns the written file path
func (cg *ChartGenerator) GenerateFleetUrgencyChart(calendar *FleetCalendar) (string, error) {
	tiers := []Urgency{UrgencyCritical, UrgencyWarning, UrgencyNormal, UrgencyUnknown}

	var values []float64
	var labels []string
	for _, tier := range tiers {
		values = append(values, float64(calendar.ByUrgency[tier]))
		labels = append(labels, string(tier))
	}

	p, err := charts.BarRender(
		[][]float64{values},
		charts.PNGTypeOption(),
		charts.TitleTextOptionFunc("Fleet Refill Urgency"),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc([]string{"Assets"}, charts.PositionRight),
		charts.ThemeOptionFunc(cg.theme),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render fleet urgency chart: %w", err)
	}

	return cg.writeChart("fleet_urgency.png", p)
}

// writeChart serializes a rendered painter to a file in the output
// directory
func (cg *ChartGenerator) writeChart(filename string, p *charts.Painter) (string, error) {
	buf, err := p.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	path := filepath.Join(cg.outputDir, filename)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return "", &StorageError{
			Operation: "write_chart",
			Path:      path,
			Err:       err,
		}
	}

	return path, nil
}
