// Package sqlite implements the snapshot store on a local SQLite database,
// the default backend for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"f0oster/zbxspy/inventory"
	"f0oster/zbxspy/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Store)(nil)

// Store persists snapshots in a SQLite database file.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens the database at path, creating the file and applying pending
// migrations as needed.
func Open(path string, log *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}

	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database %s: %w", path, err)
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite database %s: %w", path, err)
	}

	log.Debug("sqlite store opened", "path", path)
	return &Store{db: db, log: log}, nil
}

// Save replaces the snapshot for date inside a single transaction.
func (s *Store) Save(ctx context.Context, date string, hosts []inventory.Host) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := inventory.ParseDate(date); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM hosts_history WHERE collection_date = ?`, date,
	); err != nil {
		return fmt.Errorf("clear snapshot for %s: %w", date, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO hosts_history (host_id, hostname, ip_address, host_groups, templates, collection_date)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range hosts {
		if _, err := stmt.ExecContext(ctx,
			h.HostID, h.Hostname, h.IPAddress, h.Groups, h.Templates, date,
		); err != nil {
			return fmt.Errorf("insert host %s for %s: %w", h.HostID, date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot for %s: %w", date, err)
	}

	s.log.Info("snapshot saved", "date", date, "hosts", len(hosts))
	return nil
}

// HostsByDate returns the snapshot for date ordered by hostname. A date
// with no snapshot yields an empty slice.
func (s *Store) HostsByDate(ctx context.Context, date string) ([]inventory.Host, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT host_id, hostname,
       COALESCE(ip_address, 'N/A'),
       COALESCE(host_groups, 'N/A'),
       COALESCE(templates, 'N/A')
FROM hosts_history
WHERE collection_date = ?
ORDER BY hostname`, date)
	if err != nil {
		return nil, fmt.Errorf("query snapshot for %s: %w", date, err)
	}
	defer rows.Close()

	hosts := make([]inventory.Host, 0)
	for rows.Next() {
		var h inventory.Host
		if err := rows.Scan(&h.HostID, &h.Hostname, &h.IPAddress, &h.Groups, &h.Templates); err != nil {
			return nil, fmt.Errorf("scan snapshot row for %s: %w", date, err)
		}
		hosts = append(hosts, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot for %s: %w", date, err)
	}
	return hosts, nil
}

// Dates returns every distinct collection date, newest first.
func (s *Store) Dates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT collection_date
FROM hosts_history
ORDER BY collection_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query collection dates: %w", err)
	}
	defer rows.Close()

	dates := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan collection date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection dates: %w", err)
	}
	return dates, nil
}

// LatestDate returns the most recent collection date, or store.ErrEmpty
// when nothing has been stored yet.
func (s *Store) LatestDate(ctx context.Context) (string, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `
SELECT collection_date
FROM hosts_history
ORDER BY collection_date DESC
LIMIT 1`).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("query latest collection date: %w", err)
	}
	return d, nil
}

// HasDate reports whether any snapshot rows exist for date.
func (s *Store) HasDate(ctx context.Context, date string) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM hosts_history WHERE collection_date = ?)`, date).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check snapshot for %s: %w", date, err)
	}
	return found, nil
}

// CountByDate returns per-date row and distinct-host counts, newest first.
func (s *Store) CountByDate(ctx context.Context) ([]store.DateCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT collection_date, COUNT(*), COUNT(DISTINCT host_id)
FROM hosts_history
GROUP BY collection_date
ORDER BY collection_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query per-date counts: %w", err)
	}
	defer rows.Close()

	counts := make([]store.DateCount, 0)
	for rows.Next() {
		var c store.DateCount
		if err := rows.Scan(&c.Date, &c.Rows, &c.Distinct); err != nil {
			return nil, fmt.Errorf("scan per-date count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate per-date counts: %w", err)
	}
	return counts, nil
}

// DuplicateHosts lists host ids recorded more than once on a single date.
func (s *Store) DuplicateHosts(ctx context.Context) ([]store.Duplicate, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT collection_date, host_id, COUNT(*)
FROM hosts_history
GROUP BY collection_date, host_id
HAVING COUNT(*) > 1
ORDER BY collection_date DESC, host_id`)
	if err != nil {
		return nil, fmt.Errorf("query duplicate hosts: %w", err)
	}
	defer rows.Close()

	dups := make([]store.Duplicate, 0)
	for rows.Next() {
		var d store.Duplicate
		if err := rows.Scan(&d.Date, &d.HostID, &d.Count); err != nil {
			return nil, fmt.Errorf("scan duplicate host: %w", err)
		}
		dups = append(dups, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicate hosts: %w", err)
	}
	return dups, nil
}

// Dedupe deletes all but the newest row per (date, host id) pair, then
// compacts the database file.
func (s *Store) Dedupe(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM hosts_history
WHERE id NOT IN (
    SELECT MAX(id)
    FROM hosts_history
    GROUP BY collection_date, host_id
)`)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate rows: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted rows: %w", err)
	}

	if removed > 0 {
		if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
			return removed, fmt.Errorf("vacuum after dedupe: %w", err)
		}
	}

	s.log.Info("dedupe complete", "rows_removed", removed)
	return removed, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
