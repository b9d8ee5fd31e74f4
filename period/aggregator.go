// Package period folds consecutive snapshot comparisons over a date window
// into one summary, so a report covers churn across the whole span rather
// than only its endpoints.
package period

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"f0oster/zbxspy/diff"
	"f0oster/zbxspy/store"
)

// ErrInsufficientData is returned when a window resolves to fewer than two
// collection dates. No partial result accompanies it.
var ErrInsufficientData = errors.New("period: fewer than two snapshot dates in window")

// Pair is the comparison of one consecutive date pair inside a window.
type Pair struct {
	PreviousDate string       `json:"previous_date"`
	CurrentDate  string       `json:"current_date"`
	Summary      diff.Summary `json:"summary"`
}

// Window is the folded outcome of a multi-date aggregation.
//
// Comparison concatenates each pair's added, removed and modified sections
// in date order, so a host that changes in several pairs appears once per
// pair. Summary counts those concatenated sections; its totals and net
// change come from the window endpoints: TotalPrevious from the oldest
// pair, TotalCurrent from the newest.
type Window struct {
	Summary    diff.Summary `json:"summary"`
	Comparison diff.Result  `json:"comparison"`
	Pairs      []Pair       `json:"pairs"`
}

// Aggregator runs pairwise snapshot comparisons across consecutive dates.
type Aggregator struct {
	store store.Store
	log   *slog.Logger
}

func NewAggregator(st store.Store, log *slog.Logger) *Aggregator {
	return &Aggregator{store: st, log: log}
}

// Summarize folds pairwise comparisons over dates, which must be sorted
// ascending. Fewer than two dates yields ErrInsufficientData; a storage
// failure on any date abandons the whole window.
func (a *Aggregator) Summarize(ctx context.Context, dates []string) (Window, error) {
	if len(dates) < 2 {
		return Window{}, fmt.Errorf("%w: got %d", ErrInsufficientData, len(dates))
	}

	var win Window
	for i := 1; i < len(dates); i++ {
		prevDate, curDate := dates[i-1], dates[i]

		previous, err := a.store.HostsByDate(ctx, prevDate)
		if err != nil {
			return Window{}, fmt.Errorf("load snapshot %s: %w", prevDate, err)
		}
		current, err := a.store.HostsByDate(ctx, curDate)
		if err != nil {
			return Window{}, fmt.Errorf("load snapshot %s: %w", curDate, err)
		}

		res := diff.Compare(current, previous)
		win.Comparison.Added = append(win.Comparison.Added, res.Added...)
		win.Comparison.Removed = append(win.Comparison.Removed, res.Removed...)
		win.Comparison.Modified = append(win.Comparison.Modified, res.Modified...)
		win.Pairs = append(win.Pairs, Pair{
			PreviousDate: prevDate,
			CurrentDate:  curDate,
			Summary:      diff.Summarize(res),
		})

		if i == 1 {
			win.Comparison.TotalPrevious = res.TotalPrevious
		}
		if i == len(dates)-1 {
			win.Comparison.TotalCurrent = res.TotalCurrent
		}

		a.log.Debug("window pair compared",
			"previous", prevDate,
			"current", curDate,
			"added", len(res.Added),
			"removed", len(res.Removed),
			"modified", len(res.Modified),
		)
	}

	win.Summary = diff.Summarize(win.Comparison)
	return win, nil
}
