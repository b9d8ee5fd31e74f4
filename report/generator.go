// Package report renders comparison results into HTML and plain-text files
// for archiving and email attachment.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"f0oster/zbxspy/diff"
	"f0oster/zbxspy/inventory"
	"f0oster/zbxspy/metrics"
	"f0oster/zbxspy/period"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

const fileTimestamp = "20060102_150405"

// Generator writes report files into a directory, creating it on first
// use. Filenames embed the current snapshot date plus a generation
// timestamp, so repeated runs never overwrite earlier reports.
type Generator struct {
	dir  string
	tmpl *template.Template
	log  *slog.Logger
	now  func() time.Time
}

func NewGenerator(dir string, log *slog.Logger) (*Generator, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Generator{dir: dir, tmpl: tmpl, log: log, now: time.Now}, nil
}

// reportData is the payload shared by the HTML template and text renderer.
type reportData struct {
	CurrentDate  string
	PreviousDate string
	GeneratedAt  string
	Summary      diff.Summary
	NetChange    string
	HasChanges   bool
	Added        []inventory.Host
	Removed      []inventory.Host
	Modified     []diff.ModifiedHost
	Churn        *period.ChurnStats
}

func (g *Generator) buildData(res diff.Result, currentDate, previousDate string, churn *period.ChurnStats) reportData {
	sum := diff.Summarize(res)

	return reportData{
		CurrentDate:  currentDate,
		PreviousDate: previousDate,
		GeneratedAt:  g.now().Format("2006-01-02 15:04:05"),
		Summary:      sum,
		NetChange:    fmt.Sprintf("%+d", sum.NetChange),
		HasChanges:   diff.HasChanges(res),
		Added:        res.Added,
		Removed:      res.Removed,
		Modified:     res.Modified,
		Churn:        churn,
	}
}

// HTML renders the comparison to an HTML file and returns its path. churn
// may be nil for single-pair reports.
func (g *Generator) HTML(res diff.Result, currentDate, previousDate string, churn *period.ChurnStats) (string, error) {
	path, err := g.outputPath(currentDate, "html")
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create html report: %w", err)
	}
	defer f.Close()

	if err := g.tmpl.Execute(f, g.buildData(res, currentDate, previousDate, churn)); err != nil {
		return "", fmt.Errorf("render html report: %w", err)
	}

	metrics.ReportsGenerated.WithLabelValues("html").Inc()
	g.log.Info("html report generated", "path", path)
	return path, nil
}

// Text renders the comparison to a fixed-width text file and returns its
// path.
func (g *Generator) Text(res diff.Result, currentDate, previousDate string, churn *period.ChurnStats) (string, error) {
	path, err := g.outputPath(currentDate, "txt")
	if err != nil {
		return "", err
	}

	body := renderText(g.buildData(res, currentDate, previousDate, churn))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write text report: %w", err)
	}

	metrics.ReportsGenerated.WithLabelValues("text").Inc()
	g.log.Info("text report generated", "path", path)
	return path, nil
}

func (g *Generator) outputPath(currentDate, ext string) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir %s: %w", g.dir, err)
	}
	name := fmt.Sprintf("zbxspy_report_%s_%s.%s", currentDate, g.now().Format(fileTimestamp), ext)
	return filepath.Join(g.dir, name), nil
}
