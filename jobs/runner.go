// Package jobs wires collection, comparison, rendering and delivery into
// the units the CLI and scheduler execute.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"f0oster/zbxspy/collector"
	"f0oster/zbxspy/config"
	"f0oster/zbxspy/diff"
	"f0oster/zbxspy/email"
	"f0oster/zbxspy/inventory"
	"f0oster/zbxspy/metrics"
	"f0oster/zbxspy/period"
	"f0oster/zbxspy/report"
	"f0oster/zbxspy/store"
)

// ErrMissingSnapshot marks a report date whose snapshot has no hosts; the
// report is aborted rather than rendered against an empty side.
var ErrMissingSnapshot = errors.New("jobs: no snapshot stored for date")

// ErrAlreadyCollected guards the one-snapshot-per-date rule for
// non-forced collection runs.
var ErrAlreadyCollected = errors.New("jobs: snapshot already exists for date")

// SourceFactory opens the configured inventory source for one collection
// run; the Runner closes it when the run ends.
type SourceFactory func(ctx context.Context, log *slog.Logger) (collector.Source, error)

// Runner executes collection and reporting against one snapshot store.
type Runner struct {
	cfg    config.Config
	store  store.Store
	source SourceFactory
	gen    *report.Generator
	sender *email.Sender
	log    *slog.Logger
	now    func() time.Time
}

// NewRunner builds a Runner. sender may be nil when email delivery is
// disabled.
func NewRunner(cfg config.Config, st store.Store, source SourceFactory, gen *report.Generator, sender *email.Sender, log *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  st,
		source: source,
		gen:    gen,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
}

// WithLogger returns a copy of the Runner that logs through log, so a
// scheduled run can stamp its correlation fields on every line.
func (r *Runner) WithLogger(log *slog.Logger) *Runner {
	clone := *r
	clone.log = log
	return &clone
}

// Collect fetches the current inventory and stores it as today's snapshot.
// An existing snapshot for the date is an error unless force is set, in
// which case it is replaced.
func (r *Runner) Collect(ctx context.Context, force bool) (date string, err error) {
	defer func() {
		metrics.CollectionRuns.WithLabelValues(outcome(err)).Inc()
	}()

	date = inventory.Today(r.now())
	exists, err := r.store.HasDate(ctx, date)
	if err != nil {
		return "", fmt.Errorf("check existing snapshot: %w", err)
	}
	if exists && !force {
		return "", fmt.Errorf("%w: %s", ErrAlreadyCollected, date)
	}

	src, err := r.source(ctx, r.log)
	if err != nil {
		return "", fmt.Errorf("open inventory source: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			r.log.Warn("closing inventory source", "error", cerr)
		}
	}()

	hosts, err := src.Hosts(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch inventory: %w", err)
	}
	for i, h := range hosts {
		hosts[i] = h.Normalized()
		if verr := hosts[i].Validate(); verr != nil {
			return "", fmt.Errorf("inventory record %d: %w", i, verr)
		}
	}

	if exists {
		r.log.Warn("replacing existing snapshot", "date", date)
	}
	if err := r.store.Save(ctx, date, hosts); err != nil {
		return "", err
	}

	metrics.HostsCollected.Set(float64(len(hosts)))
	r.log.Info("collection complete", "date", date, "hosts", len(hosts))
	return date, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyCollected):
		return "skipped"
	default:
		return "error"
	}
}

// DailyReport compares currentDate against previousDate and renders and
// delivers the result. Empty currentDate means today; empty previousDate
// selects the newest stored date before currentDate.
func (r *Runner) DailyReport(ctx context.Context, currentDate, previousDate string) error {
	if currentDate == "" {
		currentDate = inventory.Today(r.now())
	} else if _, err := inventory.ParseDate(currentDate); err != nil {
		return err
	}

	if previousDate == "" {
		var err error
		previousDate, err = r.previousTo(ctx, currentDate)
		if err != nil {
			return err
		}
	} else if _, err := inventory.ParseDate(previousDate); err != nil {
		return err
	}

	current, err := r.store.HostsByDate(ctx, currentDate)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingSnapshot, currentDate)
	}
	previous, err := r.store.HostsByDate(ctx, previousDate)
	if err != nil {
		return err
	}
	if len(previous) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingSnapshot, previousDate)
	}

	res := diff.Compare(current, previous)
	sum := diff.Summarize(res)
	r.logSummary(currentDate, previousDate, sum)

	files, err := r.render(res, currentDate, previousDate, nil)
	if err != nil {
		return err
	}
	return r.deliver(ctx, currentDate, sum, res, files)
}

// PeriodReport aggregates the trailing-days window ending today and
// renders and delivers the result. name labels the report, e.g. "Weekly".
func (r *Runner) PeriodReport(ctx context.Context, name string, days int) error {
	all, err := r.store.Dates(ctx)
	if err != nil {
		return err
	}
	dates := period.TrailingWindow(all, r.now(), days)
	if len(dates) < 2 {
		return fmt.Errorf("%w: %s window covers %d date(s)",
			period.ErrInsufficientData, name, len(dates))
	}

	agg := period.NewAggregator(r.store, r.log)
	win, err := agg.Summarize(ctx, dates)
	if err != nil {
		return err
	}
	churn := period.Churn(win.Pairs)

	first, last := dates[0], dates[len(dates)-1]
	label := fmt.Sprintf("%s %s to %s", name, first, last)
	r.logSummary(last, first, win.Summary)

	files, err := r.render(win.Comparison, last, first, &churn)
	if err != nil {
		return err
	}
	return r.deliver(ctx, label, win.Summary, win.Comparison, files)
}

// previousTo picks the newest stored date strictly before currentDate.
func (r *Runner) previousTo(ctx context.Context, currentDate string) (string, error) {
	dates, err := r.store.Dates(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range dates {
		if d < currentDate {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: nothing stored before %s", ErrMissingSnapshot, currentDate)
}

// render writes the report files selected by REPORT_FORMAT and returns
// their paths.
func (r *Runner) render(res diff.Result, currentDate, previousDate string, churn *period.ChurnStats) ([]string, error) {
	var files []string

	if r.cfg.ReportFormat == "html" || r.cfg.ReportFormat == "both" {
		path, err := r.gen.HTML(res, currentDate, previousDate, churn)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	if r.cfg.ReportFormat == "text" || r.cfg.ReportFormat == "both" {
		path, err := r.gen.Text(res, currentDate, previousDate, churn)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func (r *Runner) deliver(ctx context.Context, label string, sum diff.Summary, res diff.Result, files []string) error {
	if r.sender == nil {
		r.log.Info("email delivery disabled, reports on disk only", "files", len(files))
		return nil
	}

	rep := email.Report{
		Recipients: r.cfg.EmailRecipients,
		Label:      label,
		Summary:    sum,
		HasChanges: diff.HasChanges(res),
		Comparison: res,
	}
	if r.cfg.EmailAttachReports {
		rep.Attachments = files
	}
	return r.sender.Send(ctx, rep)
}

func (r *Runner) logSummary(currentDate, previousDate string, sum diff.Summary) {
	r.log.Info("comparison summary",
		"current_date", currentDate,
		"previous_date", previousDate,
		"total_current", sum.TotalCurrent,
		"total_previous", sum.TotalPrevious,
		"added", sum.HostsAdded,
		"removed", sum.HostsRemoved,
		"modified", sum.HostsModified,
		"net_change", sum.NetChange,
	)
}
