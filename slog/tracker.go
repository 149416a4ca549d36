// Package slog provides logging decorators for the pipeline
// interfaces and the default run tracker backed by log/slog.
package slog

import (
	"log/slog"

	"github.com/fwojciec/siteport"
)

// Ensure Tracker implements siteport.Tracker at compile time.
var _ siteport.Tracker = (*Tracker)(nil)

// Tracker is the default run tracker. It renders stage progress and
// log lines through a slog.Logger.
type Tracker struct {
	logger *slog.Logger
}

// NewTracker creates a Tracker writing to the given logger.
func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Step logs stage progress with its counters.
func (t *Tracker) Step(name string, percent int, counters map[string]int) {
	args := make([]any, 0, 2+2*len(counters))
	args = append(args, "percent", percent)
	for k, v := range counters {
		args = append(args, k, v)
	}
	t.logger.Info(name, args...)
}

// Log forwards a structured line at the matching slog level.
func (t *Tracker) Log(level siteport.LogLevel, stage, message string, context map[string]any) {
	args := make([]any, 0, 2+2*len(context))
	args = append(args, "stage", stage)
	for k, v := range context {
		args = append(args, k, v)
	}
	switch level {
	case siteport.LogDebug:
		t.logger.Debug(message, args...)
	case siteport.LogWarn:
		t.logger.Warn(message, args...)
	case siteport.LogError:
		t.logger.Error(message, args...)
	default:
		t.logger.Info(message, args...)
	}
}
