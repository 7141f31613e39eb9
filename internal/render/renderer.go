// Package render turns a report definition and a time window into
// deliverable content. The marketplace data itself is reached through the
// DataSource collaborator; rendering never touches the scheduler's stores.
package render

import (
	"context"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

// Content is one rendered report, ready for a delivery gateway.
type Content struct {
	Subject  string
	Body     string
	MIMEType string
	Filename string
}

type Renderer interface {
	Render(ctx context.Context, report *models.ReportSchedule, windowStart, windowEnd time.Time) (*Content, error)
}

// ReportData is the analytics snapshot a DataSource produces for a window.
type ReportData struct {
	WindowStart  time.Time
	GeneratedAt  time.Time
	WindowEnd    time.Time
	Orders       int
	Revenue      float64
	NewCustomers int
	TopProducts  []ProductSummary
}

type ProductSummary struct {
	Name    string
	Units   int
	Revenue float64
}

// DataSource supplies the numbers behind a report window.
type DataSource interface {
	Collect(ctx context.Context, windowStart, windowEnd time.Time) (*ReportData, error)
}
