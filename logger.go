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
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with domain-specific methods
type Logger struct {
	*slog.Logger
}

// NewLogger creates a text-formatted logger
func NewLogger(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return &Logger{slog.New(handler)}
}

// NewJSONLogger creates a JSON-formatted logger
func NewJSONLogger(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stderr, opts)
	return &Logger{slog.New(handler)}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{l.With("component", component)}
}

// WithAsset adds an asset ID field to the logger
func (l *Logger) WithAsset(assetID string) *Logger {
	return &Logger{l.With("asset_id", assetID)}
}

// LogStoreQuery logs a reading-store query
func (l *Logger) LogStoreQuery(operation, assetID string) {
	l.Debug("Store query",
		"operation", operation,
		"asset_id", assetID,
	)
}

// LogAnalysisStage logs analysis stage completion
func (l *Logger) LogAnalysisStage(stage string) {
	l.Info("Analysis stage completed",
		"stage", stage,
	)
}

// LogAnomalyDetected logs detected anomaly
func (l *Logger) LogAnomalyDetected(assetID string, severity AnomalySeverity, ratio float64) {
	l.Warn("Anomaly detected",
		"asset_id", assetID,
		"severity", string(severity),
		"ratio", fmt.Sprintf("%.2fx", ratio),
	)
}

// LogPrediction logs the outcome of a refill prediction
func (l *Logger) LogPrediction(assetID string, urgency Urgency, confidence Confidence) {
	l.Info("Refill prediction",
		"asset_id", assetID,
		"urgency", string(urgency),
		"confidence", string(confidence),
	)
}

// LogStorageOperation logs storage operations
func (l *Logger) LogStorageOperation(operation, path string) {
	l.Debug("Storage operation",
		"operation", operation,
		"path", path,
	)
}

// UserMessage outputs a message directly to stdout (bypassing structured logging)
func (l *Logger) UserMessage(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
