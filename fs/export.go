package fs

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/siteport"
)

// Export file names inside the output directory.
const (
	exportFile  = "import.csv"
	summaryFile = "import_summary.json"
)

// Ensure ExportWriter implements siteport.ExportWriter at compile time.
var _ siteport.ExportWriter = (*ExportWriter)(nil)

// ExportWriter serializes export records into the destination import
// CSV plus a JSON generation summary. Every field, including the
// header, is double-quoted with internal quotes doubled; the
// destination's importer requires uniform quoting, which rules out
// encoding/csv's minimal quoting.
type ExportWriter struct {
	dir   string
	runID string
	now   func() time.Time
}

// ExportOption configures an ExportWriter.
type ExportOption func(*ExportWriter)

// WithExportClock sets the clock used for the summary timestamp.
func WithExportClock(now func() time.Time) ExportOption {
	return func(w *ExportWriter) {
		w.now = now
	}
}

// NewExportWriter creates an ExportWriter that writes into dir.
func NewExportWriter(dir, runID string, opts ...ExportOption) *ExportWriter {
	w := &ExportWriter{
		dir:   dir,
		runID: runID,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the location of the CSV file.
func (w *ExportWriter) Path() string {
	return filepath.Join(w.dir, exportFile)
}

// Write serializes all records in order and returns the generation
// summary, which is also written next to the CSV.
func (w *ExportWriter) Write(ctx context.Context, records []*siteport.ExportRecord) (*siteport.ExportSummary, error) {
	started := w.now()

	var b strings.Builder
	writeCSVRow(&b, siteport.ExportColumns)

	summary := &siteport.ExportSummary{
		RunID:       w.runID,
		GeneratedAt: started,
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		writeCSVRow(&b, rec.Row())
		switch rec.Kind {
		case siteport.KindPost:
			summary.Posts++
		case siteport.KindPage:
			summary.Pages++
		}
		summary.Items = append(summary.Items, siteport.ExportItem{
			Title: rec.Title,
			Kind:  rec.Kind,
			Slug:  rec.Slug,
		})
	}

	payload := []byte(b.String())
	if err := writeFileAtomic(w.Path(), payload); err != nil {
		return nil, err
	}

	summary.ByteSize = int64(len(payload))
	summary.Duration = w.now().Sub(started)
	if err := writeJSONAtomic(filepath.Join(w.dir, summaryFile), summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// writeCSVRow appends one row with every field quoted. Embedded quotes
// are doubled per RFC 4180; newlines inside fields are preserved.
func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
