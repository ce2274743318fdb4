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
	"flag"
	"fmt"
	"os"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	dbPath := flag.String("db", "", "Path to the readings database (overrides config)")
	customerID := flag.String("customer", "", "Customer ID to scope the fleet run (overrides config)")
	assetID := flag.String("asset", "", "Analyze a single asset instead of the fleet")
	ingestPath := flag.String("ingest", "", "Ingest readings for -asset from a CSV file and exit")
	outputPath := flag.String("output", "", "Output file for report (default: stdout)")
	chartsDir := flag.String("charts", "", "Directory for PNG charts (default: no charts)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("tankwatch %s\n", GetVersion())
		os.Exit(0)
	}

	// Initialize logger
	logger := NewLogger(*debug)
	logger.Info("Starting tankwatch", "version", GetVersion())

	// Load configuration
	logger.Info("Loading configuration", "config_file", *configPath)
	config, err := LoadConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Override with command-line flags
	if *dbPath != "" {
		config.DatabasePath = *dbPath
	}
	if *customerID != "" {
		config.CustomerID = *customerID
	}
	if *debug {
		config.Debug = true
		// Recreate logger with debug enabled
		logger = NewLogger(true)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Configuration loaded successfully")

	// Open the reading store
	logger.Info("Opening reading store", "path", config.DatabasePath)
	store, err := OpenStore(config.DatabasePath, logger)
	if err != nil {
		logger.Error("Failed to open reading store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *ingestPath != "" {
		if *assetID == "" {
			logger.Error("Ingest requires -asset")
			os.Exit(1)
		}
		inserted, err := IngestCSV(store, *assetID, *ingestPath, logger)
		if err != nil {
			logger.Error("Ingest failed", "error", err, "inserted", inserted)
			os.Exit(1)
		}
		return
	}

	// Initialize snapshot storage
	scope := config.CustomerID
	if scope == "" {
		scope = "fleet"
	}
	logger.Info("Initializing storage", "path", config.StoragePath)
	storage, err := NewStorage(config.StoragePath, scope, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	// Road-risk adjustment is optional
	var roadRisk *RoadRiskClient
	if config.RoadRisk.Enabled {
		logger.Info("Road-risk lead time adjustment enabled")
		roadRisk = NewRoadRiskClient(config.RoadRisk, storage, logger)
	}

	analyzer := NewAnalyzer(config, store, roadRisk, logger)
	reporter := NewReporter(logger)

	var chartGen *ChartGenerator
	if *chartsDir != "" {
		chartGen, err = NewChartGenerator(*chartsDir)
		if err != nil {
			logger.Error("Failed to initialize chart generator", "error", err)
			os.Exit(1)
		}
	}

	if *assetID != "" {
		runAsset(analyzer, storage, reporter, chartGen, store, logger, *assetID, *outputPath)
		return
	}

	runFleet(analyzer, storage, reporter, chartGen, store, config, logger, scope, *outputPath)
}

// runAsset analyzes and reports on a single asset
func runAsset(analyzer *Analyzer, storage *Storage, reporter *Reporter, chartGen *ChartGenerator, store *SQLStore, logger *Logger, assetID, outputPath string) {
	asset, err := findAsset(store, assetID)
	if err != nil {
		logger.Error("Failed to look up asset", "asset_id", assetID, "error", err)
		os.Exit(1)
	}

	logger.Info("Analyzing asset", "asset_id", assetID)
	analysis, err := analyzer.AnalyzeAsset(asset)
	if err != nil {
		logger.Error("Asset analysis failed", "asset_id", assetID, "error", err)
		os.Exit(1)
	}

	if err := storage.SaveAssetAnalysis(analysis); err != nil {
		logger.Warn("Failed to save analysis snapshot", "error", err)
	}

	if chartGen != nil {
		if path, err := chartGen.GenerateLevelHistoryChart(analysis); err != nil {
			logger.Warn("Failed to generate level chart", "error", err)
		} else {
			logger.Info("Chart written", "path", path)
		}
	}

	if err := reporter.GenerateAssetReport(analysis, outputPath); err != nil {
		logger.Error("Failed to generate report", "error", err)
		os.Exit(1)
	}

	logger.Info("Analysis completed successfully")
}

// runFleet analyzes the configured fleet scope and reports the calendar
func runFleet(analyzer *Analyzer, storage *Storage, reporter *Reporter, chartGen *ChartGenerator, store *SQLStore, config *Config, logger *Logger, scope, outputPath string) {
	logger.Info("Fetching fleet assets", "customer_id", config.CustomerID)
	assets, err := store.FetchAssets(config.CustomerID)
	if err != nil {
		logger.Error("Failed to fetch assets", "error", err)
		os.Exit(1)
	}
	if len(assets) == 0 {
		logger.Error("No assets found in scope", "customer_id", config.CustomerID)
		os.Exit(1)
	}

	logger.Info("Analyzing fleet", "assets", len(assets))
	calendar, analyses := analyzer.AnalyzeFleet(assets)

	if err := storage.SaveFleetSnapshot(calendar, scope); err != nil {
		logger.Warn("Failed to save fleet snapshot", "error", err)
	}

	if chartGen != nil {
		if path, err := chartGen.GenerateFleetUrgencyChart(calendar); err != nil {
			logger.Warn("Failed to generate fleet chart", "error", err)
		} else {
			logger.Info("Chart written", "path", path)
		}
		for _, analysis := range analyses {
			if path, err := chartGen.GenerateLevelHistoryChart(analysis); err != nil {
				logger.Debug("Skipping level chart", "asset_id", analysis.Asset.ID, "error", err)
			} else {
				logger.Info("Chart written", "path", path)
			}
		}
	}

	if err := reporter.GenerateFleetReport(calendar, analyses, outputPath); err != nil {
		logger.Error("Failed to generate report", "error", err)
		os.Exit(1)
	}

	logger.Info("Analysis completed successfully")
}

// findAsset resolves one asset by ID
func findAsset(store *SQLStore, assetID string) (Asset, error) {
	assets, err := store.FetchAssets("")
	if err != nil {
		return Asset{}, err
	}
	for _, a := range assets {
		if a.ID == assetID {
			return a, nil
		}
	}
	return Asset{}, &DataError{
		DataType: "asset",
		Message:  fmt.Sprintf("asset %s not found", assetID),
	}
}
