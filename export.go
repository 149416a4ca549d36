package siteport

import (
	"context"
	"time"
)

// ExportColumns is the destination platform's fixed CSV column order.
// Every field is double-quoted on output.
var ExportColumns = []string{
	"post_title", "post_content", "post_type", "post_status",
	"post_date", "post_name", "post_excerpt", "post_category",
}

// ExportDateFormat is the destination platform's post_date layout.
const ExportDateFormat = "2006-01-02 15:04:05"

// ExportRecord is one row of the destination import file.
type ExportRecord struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	PublishDate time.Time `json:"publishDate"`
	BodyHTML    string    `json:"-"`
	Kind        Kind      `json:"kind"`
	Category    string    `json:"category"`
}

// Validate returns an error if the record contains invalid fields.
func (r *ExportRecord) Validate() error {
	if r.Title == "" {
		return Errorf(EINVALID, "export record title required")
	}
	if r.Slug == "" {
		return Errorf(EINVALID, "export record slug required")
	}
	return nil
}

// Row returns the record's CSV fields in ExportColumns order.
// post_status is always "publish".
func (r *ExportRecord) Row() []string {
	return []string{
		r.Title,
		r.BodyHTML,
		string(r.Kind),
		"publish",
		r.PublishDate.Format(ExportDateFormat),
		r.Slug,
		r.Excerpt,
		r.Category,
	}
}

// RecordBuilder derives an export record from a sanitized document plus
// its pre-sanitization capture (titles and dates are read from the
// captured markup, which still carries the signals sanitization strips).
type RecordBuilder interface {
	Build(captured *CapturedDocument, cleaned *SanitizedDocument, now time.Time) (*ExportRecord, error)
}

// ExportWriter serializes all records into the destination import file
// plus a JSON generation summary.
type ExportWriter interface {
	Write(ctx context.Context, records []*ExportRecord) (*ExportSummary, error)
}

// ExportSummary is the JSON generation summary emitted next to the
// export file.
type ExportSummary struct {
	RunID       string        `json:"runId"`
	GeneratedAt time.Time     `json:"generatedAt"`
	ByteSize    int64         `json:"byteSize"`
	Posts       int           `json:"posts"`
	Pages       int           `json:"pages"`
	Items       []ExportItem  `json:"items"`
	Duration    time.Duration `json:"duration"`
}

// ExportItem is the per-record line of the generation summary.
type ExportItem struct {
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
	Slug  string `json:"slug"`
}
