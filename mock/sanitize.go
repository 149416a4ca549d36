package mock

import (
	"context"
	"time"

	"github.com/fwojciec/siteport"
)

var _ siteport.Classifier = (*Classifier)(nil)

// Classifier is a mock implementation of siteport.Classifier.
type Classifier struct {
	ClassifyFn func(doc *siteport.CapturedDocument) (siteport.ContentClassification, error)
}

func (c *Classifier) Classify(doc *siteport.CapturedDocument) (siteport.ContentClassification, error) {
	return c.ClassifyFn(doc)
}

var _ siteport.Sanitizer = (*Sanitizer)(nil)

// Sanitizer is a mock implementation of siteport.Sanitizer.
type Sanitizer struct {
	SanitizeFn func(doc *siteport.CapturedDocument, class siteport.ContentClassification, assets *siteport.AssetManifest) (*siteport.SanitizedDocument, error)
}

func (s *Sanitizer) Sanitize(doc *siteport.CapturedDocument, class siteport.ContentClassification, assets *siteport.AssetManifest) (*siteport.SanitizedDocument, error) {
	return s.SanitizeFn(doc, class, assets)
}

var _ siteport.RecordBuilder = (*RecordBuilder)(nil)

// RecordBuilder is a mock implementation of siteport.RecordBuilder.
type RecordBuilder struct {
	BuildFn func(captured *siteport.CapturedDocument, cleaned *siteport.SanitizedDocument, now time.Time) (*siteport.ExportRecord, error)
}

func (b *RecordBuilder) Build(captured *siteport.CapturedDocument, cleaned *siteport.SanitizedDocument, now time.Time) (*siteport.ExportRecord, error) {
	return b.BuildFn(captured, cleaned, now)
}

var _ siteport.ExportWriter = (*ExportWriter)(nil)

// ExportWriter is a mock implementation of siteport.ExportWriter.
type ExportWriter struct {
	WriteFn func(ctx context.Context, records []*siteport.ExportRecord) (*siteport.ExportSummary, error)
}

func (w *ExportWriter) Write(ctx context.Context, records []*siteport.ExportRecord) (*siteport.ExportSummary, error) {
	return w.WriteFn(ctx, records)
}

var _ siteport.Tracker = (*Tracker)(nil)

// Tracker is a mock implementation of siteport.Tracker. Nil functions
// make the call a no-op so tests only wire what they assert on.
type Tracker struct {
	StepFn func(name string, percent int, counters map[string]int)
	LogFn  func(level siteport.LogLevel, stage, message string, context map[string]any)
}

func (t *Tracker) Step(name string, percent int, counters map[string]int) {
	if t.StepFn != nil {
		t.StepFn(name, percent, counters)
	}
}

func (t *Tracker) Log(level siteport.LogLevel, stage, message string, context map[string]any) {
	if t.LogFn != nil {
		t.LogFn(level, stage, message, context)
	}
}
