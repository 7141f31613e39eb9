package render

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
)

const htmlReport = `<!DOCTYPE html>
<html>
<head><style>
body { font-family: Arial, sans-serif; color: #333; }
table { border-collapse: collapse; width: 100%; }
td, th { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
.header { background: #1a1a2e; color: white; padding: 16px; }
.footer { color: #888; font-size: 12px; margin-top: 16px; }
</style></head>
<body>
<div class="header">
  <h2>{{.Name}}</h2>
  <p>{{.Data.WindowStart.Format "2006-01-02 15:04"}} &mdash; {{.Data.WindowEnd.Format "2006-01-02 15:04"}}</p>
</div>
<table>
  <tr><td><strong>Orders</strong></td><td>{{.Data.Orders}}</td></tr>
  <tr><td><strong>Revenue</strong></td><td>{{printf "%.2f" .Data.Revenue}}</td></tr>
  <tr><td><strong>New customers</strong></td><td>{{.Data.NewCustomers}}</td></tr>
</table>
{{if .Data.TopProducts}}
<h3>Top products</h3>
<table>
  <tr><th>Product</th><th>Units</th><th>Revenue</th></tr>
  {{range .Data.TopProducts}}
  <tr><td>{{.Name}}</td><td>{{.Units}}</td><td>{{printf "%.2f" .Revenue}}</td></tr>
  {{end}}
</table>
{{end}}
<div class="footer">Generated {{.Data.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}. Automated report; do not reply.</div>
</body>
</html>`

// TemplateRenderer renders HTML, CSV, or JSON content depending on the
// report's configured format.
type TemplateRenderer struct {
	source DataSource
	tmpl   *template.Template
}

func NewTemplateRenderer(source DataSource) (*TemplateRenderer, error) {
	tmpl, err := template.New("report").Parse(htmlReport)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %v", err)
	}
	return &TemplateRenderer{source: source, tmpl: tmpl}, nil
}

func (r *TemplateRenderer) Render(ctx context.Context, report *models.ReportSchedule, windowStart, windowEnd time.Time) (*Content, error) {
	data, err := r.source.Collect(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to collect report data: %w", err)
	}
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now().UTC()
	}

	subject := fmt.Sprintf("%s (%s - %s)", report.Name,
		windowStart.Format("2006-01-02"), windowEnd.Format("2006-01-02"))

	switch report.Format {
	case models.FormatCSV:
		body, err := renderCSV(data)
		if err != nil {
			return nil, err
		}
		return &Content{Subject: subject, Body: body, MIMEType: "text/csv",
			Filename: filename(report.Name, windowEnd, "csv")}, nil
	case models.FormatJSON:
		body, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return &Content{Subject: subject, Body: string(body), MIMEType: "application/json",
			Filename: filename(report.Name, windowEnd, "json")}, nil
	default:
		var buf bytes.Buffer
		payload := struct {
			Name string
			Data *ReportData
		}{Name: report.Name, Data: data}
		if err := r.tmpl.Execute(&buf, payload); err != nil {
			return nil, fmt.Errorf("failed to execute report template: %w", err)
		}
		return &Content{Subject: subject, Body: buf.String(), MIMEType: "text/html",
			Filename: filename(report.Name, windowEnd, "html")}, nil
	}
}

func renderCSV(data *ReportData) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{
		{"window_start", "window_end", "orders", "revenue", "new_customers"},
		{
			data.WindowStart.Format(time.RFC3339),
			data.WindowEnd.Format(time.RFC3339),
			strconv.Itoa(data.Orders),
			strconv.FormatFloat(data.Revenue, 'f', 2, 64),
			strconv.Itoa(data.NewCustomers),
		},
	}
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.String(), nil
}

func filename(name string, windowEnd time.Time, ext string) string {
	return fmt.Sprintf("%s-%s.%s", name, windowEnd.Format("2006-01-02"), ext)
}
