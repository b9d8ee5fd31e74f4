// Package postgres implements the snapshot store on PostgreSQL for shared
// deployments where several collectors or readers use one database.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"f0oster/zbxspy/inventory"
	"f0oster/zbxspy/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

var _ store.Store = (*Store)(nil)

// Store persists snapshots through a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// Open connects to dsn and ensures the snapshot schema exists.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure snapshot schema: %w", err)
	}

	log.Debug("postgres store opened")
	return &Store{pool: pool, log: log}, nil
}

// rollbackOrCommit finishes tx based on the caller's named error: rollback
// when it is set, commit otherwise, surfacing commit failures through it.
func rollbackOrCommit(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		_ = tx.Rollback(ctx)
		return
	}
	if cmErr := tx.Commit(ctx); cmErr != nil {
		*err = fmt.Errorf("commit transaction: %w", cmErr)
	}
}

// Save replaces the snapshot for date inside a single transaction, bulk
// loading rows with COPY.
func (s *Store) Save(ctx context.Context, date string, hosts []inventory.Host) (err error) {
	if _, err = inventory.ParseDate(date); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer rollbackOrCommit(ctx, tx, &err)

	if _, err = tx.Exec(ctx,
		`DELETE FROM hosts_history WHERE collection_date = $1`, date,
	); err != nil {
		return fmt.Errorf("clear snapshot for %s: %w", date, err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"hosts_history"},
		[]string{"host_id", "hostname", "ip_address", "host_groups", "templates", "collection_date"},
		pgx.CopyFromSlice(len(hosts), func(i int) ([]any, error) {
			h := hosts[i]
			return []any{h.HostID, h.Hostname, h.IPAddress, h.Groups, h.Templates, date}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy snapshot rows for %s: %w", date, err)
	}

	s.log.Info("snapshot saved", "date", date, "hosts", len(hosts))
	return nil
}

func (s *Store) HostsByDate(ctx context.Context, date string) ([]inventory.Host, error) {
	rows, err := s.pool.Query(ctx, `
SELECT host_id, hostname,
       COALESCE(ip_address, 'N/A'),
       COALESCE(host_groups, 'N/A'),
       COALESCE(templates, 'N/A')
FROM hosts_history
WHERE collection_date = $1
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

func (s *Store) Dates(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
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

func (s *Store) LatestDate(ctx context.Context) (string, error) {
	var d string
	err := s.pool.QueryRow(ctx, `
SELECT collection_date
FROM hosts_history
ORDER BY collection_date DESC
LIMIT 1`).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", store.ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("query latest collection date: %w", err)
	}
	return d, nil
}

func (s *Store) HasDate(ctx context.Context, date string) (bool, error) {
	var found bool
	err := s.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM hosts_history WHERE collection_date = $1)`, date).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check snapshot for %s: %w", date, err)
	}
	return found, nil
}

func (s *Store) CountByDate(ctx context.Context) ([]store.DateCount, error) {
	rows, err := s.pool.Query(ctx, `
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

func (s *Store) DuplicateHosts(ctx context.Context) ([]store.Duplicate, error) {
	rows, err := s.pool.Query(ctx, `
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

func (s *Store) Dedupe(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
DELETE FROM hosts_history
WHERE id NOT IN (
    SELECT MAX(id)
    FROM hosts_history
    GROUP BY collection_date, host_id
)`)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate rows: %w", err)
	}
	removed := tag.RowsAffected()

	s.log.Info("dedupe complete", "rows_removed", removed)
	return removed, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
