package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"f0oster/zbxspy/diff"
	"f0oster/zbxspy/inventory"
	"f0oster/zbxspy/period"
	"f0oster/zbxspy/store"
)

// Response types for JSON serialization

type DatesResponse struct {
	Dates []store.DateCount `json:"dates"`
	Total int               `json:"total"`
}

type HostsResponse struct {
	Date  string           `json:"date"`
	Hosts []inventory.Host `json:"hosts"`
	Total int              `json:"total"`
}

type CompareResponse struct {
	CurrentDate  string       `json:"current_date"`
	PreviousDate string       `json:"previous_date"`
	Summary      diff.Summary `json:"summary"`
	Comparison   diff.Result  `json:"comparison"`
}

type PeriodResponse struct {
	Days    int               `json:"days"`
	Dates   []string          `json:"dates"`
	Summary diff.Summary      `json:"summary"`
	Churn   period.ChurnStats `json:"churn"`
	Pairs   []period.Pair     `json:"pairs"`
}

type StatusResponse struct {
	LatestDate    string `json:"latest_date,omitempty"`
	SnapshotDates int    `json:"snapshot_dates"`
	LatestHosts   int    `json:"latest_hosts"`
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Handlers

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountByDate(r.Context())
	if err != nil {
		s.log.Error("listing snapshot dates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list snapshot dates")
		return
	}
	if counts == nil {
		counts = []store.DateCount{}
	}
	writeJSON(w, http.StatusOK, DatesResponse{Dates: counts, Total: len(counts)})
}

func (s *Server) handleHostsByDate(w http.ResponseWriter, r *http.Request) {
	date, err := inventory.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	hosts, err := s.store.HostsByDate(r.Context(), date)
	if err != nil {
		s.log.Error("loading snapshot", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if len(hosts) == 0 {
		writeError(w, http.StatusNotFound, "no snapshot for "+date)
		return
	}
	writeJSON(w, http.StatusOK, HostsResponse{Date: date, Hosts: hosts, Total: len(hosts)})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	currentDate := q.Get("current")
	if currentDate == "" {
		latest, err := s.store.LatestDate(ctx)
		if errors.Is(err, store.ErrEmpty) {
			writeError(w, http.StatusNotFound, "no snapshots stored")
			return
		}
		if err != nil {
			s.log.Error("resolving latest date", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to resolve latest date")
			return
		}
		currentDate = latest
	} else if _, err := inventory.ParseDate(currentDate); err != nil {
		writeError(w, http.StatusBadRequest, "current must be YYYY-MM-DD")
		return
	}

	previousDate := q.Get("previous")
	if previousDate == "" {
		prev, ok, err := s.previousTo(ctx, currentDate)
		if err != nil {
			s.log.Error("resolving previous date", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to resolve previous date")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "no snapshot stored before "+currentDate)
			return
		}
		previousDate = prev
	} else if _, err := inventory.ParseDate(previousDate); err != nil {
		writeError(w, http.StatusBadRequest, "previous must be YYYY-MM-DD")
		return
	}

	current, err := s.store.HostsByDate(ctx, currentDate)
	if err != nil {
		s.log.Error("loading snapshot", "date", currentDate, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if len(current) == 0 {
		writeError(w, http.StatusNotFound, "no snapshot for "+currentDate)
		return
	}
	previous, err := s.store.HostsByDate(ctx, previousDate)
	if err != nil {
		s.log.Error("loading snapshot", "date", previousDate, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if len(previous) == 0 {
		writeError(w, http.StatusNotFound, "no snapshot for "+previousDate)
		return
	}

	res := diff.Compare(current, previous)
	writeJSON(w, http.StatusOK, CompareResponse{
		CurrentDate:  currentDate,
		PreviousDate: previousDate,
		Summary:      diff.Summarize(res),
		Comparison:   res,
	})
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, err := strconv.Atoi(r.PathValue("days"))
	if err != nil || days < 1 {
		writeError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	all, err := s.store.Dates(ctx)
	if err != nil {
		s.log.Error("listing snapshot dates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list snapshot dates")
		return
	}
	dates := period.TrailingWindow(all, s.now(), days)
	if len(dates) < 2 {
		writeError(w, http.StatusNotFound, "fewer than two snapshots in the trailing window")
		return
	}

	agg := period.NewAggregator(s.store, s.log)
	win, err := agg.Summarize(ctx, dates)
	if err != nil {
		s.log.Error("aggregating period", "days", days, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to aggregate period")
		return
	}

	writeJSON(w, http.StatusOK, PeriodResponse{
		Days:    days,
		Dates:   dates,
		Summary: win.Summary,
		Churn:   period.Churn(win.Pairs),
		Pairs:   win.Pairs,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dates, err := s.store.Dates(ctx)
	if err != nil {
		s.log.Error("listing snapshot dates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list snapshot dates")
		return
	}

	status := StatusResponse{SnapshotDates: len(dates)}
	if len(dates) > 0 {
		status.LatestDate = dates[0]
		hosts, err := s.store.HostsByDate(ctx, status.LatestDate)
		if err != nil {
			s.log.Error("loading snapshot", "date", status.LatestDate, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load snapshot")
			return
		}
		status.LatestHosts = len(hosts)
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Dates(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// previousTo picks the newest stored date strictly before date.
func (s *Server) previousTo(ctx context.Context, date string) (string, bool, error) {
	dates, err := s.store.Dates(ctx)
	if err != nil {
		return "", false, err
	}
	for _, d := range dates {
		if d < date {
			return d, true, nil
		}
	}
	return "", false, nil
}
