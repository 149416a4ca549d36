package siteport

// LogLevel classifies tracker log lines.
type LogLevel string

// Log levels reported to the run tracker.
const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// Tracker receives stage progress and structured log lines from a
// pipeline run. The pipeline never assumes an external tracker is
// attached; when none is, it degrades to local logging (see the slog
// package).
type Tracker interface {
	// Step reports stage progress: the step name, percent complete
	// (0-100), and arbitrary counters.
	Step(name string, percent int, counters map[string]int)

	// Log reports a structured log line with stage context.
	Log(level LogLevel, stage, message string, context map[string]any)
}
