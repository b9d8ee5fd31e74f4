// Package store defines the snapshot persistence contract shared by the
// SQLite and PostgreSQL backends.
package store

import (
	"context"
	"errors"

	"f0oster/zbxspy/inventory"
)

// ErrEmpty is returned by LatestDate when no snapshot has been stored yet.
var ErrEmpty = errors.New("store: no snapshots stored")

// DateCount summarizes the row volume recorded for one collection date.
type DateCount struct {
	Date     string `json:"date"`
	Rows     int    `json:"rows"`
	Distinct int    `json:"distinct_hosts"`
}

// Duplicate identifies a host id stored more than once for one date.
type Duplicate struct {
	Date   string `json:"date"`
	HostID string `json:"host_id"`
	Count  int    `json:"count"`
}

// Store persists one full inventory snapshot per collection date.
//
// Save atomically replaces the snapshot for a date: a concurrent reader
// observes either the complete old snapshot or the complete new one, never
// a mix. Reading a date with no snapshot yields an empty slice, not an
// error; only infrastructure failures surface as errors.
type Store interface {
	// Save stores hosts as the snapshot for date, replacing any snapshot
	// already recorded for that date. Rows are stored exactly as given,
	// duplicates included.
	Save(ctx context.Context, date string, hosts []inventory.Host) error

	// HostsByDate returns the snapshot for date ordered by hostname.
	HostsByDate(ctx context.Context, date string) ([]inventory.Host, error)

	// Dates returns every distinct collection date, newest first.
	Dates(ctx context.Context) ([]string, error)

	// LatestDate returns the most recent collection date, or ErrEmpty.
	LatestDate(ctx context.Context) (string, error)

	// HasDate reports whether any snapshot rows exist for date.
	HasDate(ctx context.Context, date string) (bool, error)

	// CountByDate returns per-date row and distinct-host counts, newest
	// first.
	CountByDate(ctx context.Context) ([]DateCount, error)

	// DuplicateHosts lists host ids recorded more than once on a single
	// date.
	DuplicateHosts(ctx context.Context) ([]Duplicate, error)

	// Dedupe deletes all but the newest row for every (date, host id)
	// pair and returns the number of rows removed.
	Dedupe(ctx context.Context) (int64, error)

	Close() error
}
