package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"f0oster/zbxspy/collector"
	"f0oster/zbxspy/config"
	"f0oster/zbxspy/inventory"
	"f0oster/zbxspy/period"
	"f0oster/zbxspy/report"
	"f0oster/zbxspy/store/sqlite"
)

// fakeSource serves a canned inventory and records lifecycle calls.
type fakeSource struct {
	hosts  []inventory.Host
	err    error
	closed bool
}

func (f *fakeSource) Hosts(ctx context.Context) ([]inventory.Host, error) {
	return f.hosts, f.err
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func testNow() time.Time {
	return time.Date(2025, time.August, 23, 6, 0, 0, 0, time.UTC)
}

func newTestRunner(t *testing.T, src *fakeSource) (*Runner, *sqlite.Store, string) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	reportsDir := filepath.Join(dir, "reports")
	gen, err := report.NewGenerator(reportsDir, log)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	cfg := config.Config{
		ReportFormat: "text",
		ReportsDir:   reportsDir,
	}
	factory := func(ctx context.Context, log *slog.Logger) (collector.Source, error) {
		if src == nil {
			return nil, errors.New("no source configured")
		}
		return src, nil
	}

	r := NewRunner(cfg, st, factory, gen, nil, log)
	r.now = testNow
	return r, st, reportsDir
}

func hosts(specs ...[3]string) []inventory.Host {
	out := make([]inventory.Host, 0, len(specs))
	for _, s := range specs {
		out = append(out, inventory.Host{
			HostID: s[0], Hostname: s[1], IPAddress: s[2],
			Groups: "G", Templates: "T",
		})
	}
	return out
}

func TestCollectStoresSnapshot(t *testing.T) {
	src := &fakeSource{hosts: hosts([3]string{"1", "web-01", "10.0.0.1"}, [3]string{"2", "db-01", "10.0.0.2"})}
	r, st, _ := newTestRunner(t, src)

	date, err := r.Collect(context.Background(), false)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if date != "2025-08-23" {
		t.Errorf("date = %q, want 2025-08-23", date)
	}
	if !src.closed {
		t.Error("source not closed after collection")
	}

	stored, err := st.HostsByDate(context.Background(), date)
	if err != nil {
		t.Fatalf("HostsByDate error: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d hosts, want 2", len(stored))
	}
}

func TestCollectRefusesDuplicateDate(t *testing.T) {
	src := &fakeSource{hosts: hosts([3]string{"1", "web-01", "10.0.0.1"})}
	r, st, _ := newTestRunner(t, src)
	ctx := context.Background()

	if _, err := r.Collect(ctx, false); err != nil {
		t.Fatalf("first Collect error: %v", err)
	}

	_, err := r.Collect(ctx, false)
	if !errors.Is(err, ErrAlreadyCollected) {
		t.Fatalf("second Collect error = %v, want ErrAlreadyCollected", err)
	}

	// Forced collection replaces the stored snapshot.
	src.hosts = hosts([3]string{"9", "fresh", "10.0.0.9"})
	if _, err := r.Collect(ctx, true); err != nil {
		t.Fatalf("forced Collect error: %v", err)
	}
	stored, _ := st.HostsByDate(ctx, "2025-08-23")
	if len(stored) != 1 || stored[0].HostID != "9" {
		t.Errorf("snapshot after forced collect = %+v, want only host 9", stored)
	}
}

func TestCollectRejectsInvalidRecord(t *testing.T) {
	src := &fakeSource{hosts: []inventory.Host{{Hostname: "no-id"}}}
	r, _, _ := newTestRunner(t, src)

	if _, err := r.Collect(context.Background(), false); err == nil {
		t.Error("Collect accepted a record without a host id")
	}
	if !src.closed {
		t.Error("source not closed on validation failure")
	}
}

func TestCollectNormalizesRecords(t *testing.T) {
	src := &fakeSource{hosts: []inventory.Host{{HostID: "1", Hostname: "bare"}}}
	r, st, _ := newTestRunner(t, src)

	if _, err := r.Collect(context.Background(), false); err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	stored, _ := st.HostsByDate(context.Background(), "2025-08-23")
	if stored[0].IPAddress != inventory.Sentinel || stored[0].Groups != inventory.Sentinel {
		t.Errorf("stored record not normalized: %+v", stored[0])
	}
}

func TestDailyReportSelectsPreviousDate(t *testing.T) {
	r, st, reportsDir := newTestRunner(t, nil)
	ctx := context.Background()

	if err := st.Save(ctx, "2025-08-20", hosts([3]string{"1", "a", "10.0.0.1"})); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, "2025-08-21", hosts([3]string{"1", "a", "10.0.0.1"})); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, "2025-08-23", hosts([3]string{"1", "a", "10.0.0.1"}, [3]string{"2", "b", "10.0.0.2"})); err != nil {
		t.Fatal(err)
	}

	if err := r.DailyReport(ctx, "", ""); err != nil {
		t.Fatalf("DailyReport error: %v", err)
	}

	body := readOnlyReport(t, reportsDir)
	if !strings.Contains(body, "Previous date: 2025-08-21") {
		t.Errorf("report compared against wrong previous date:\n%s", body)
	}
	if !strings.Contains(body, "HOSTS ADDED (1)") {
		t.Errorf("report missing added host:\n%s", body)
	}
}

func TestDailyReportMissingSnapshot(t *testing.T) {
	r, st, _ := newTestRunner(t, nil)
	ctx := context.Background()

	// Nothing stored for today at all.
	if err := st.Save(ctx, "2025-08-21", hosts([3]string{"1", "a", "10.0.0.1"})); err != nil {
		t.Fatal(err)
	}
	err := r.DailyReport(ctx, "", "")
	if !errors.Is(err, ErrMissingSnapshot) {
		t.Errorf("DailyReport error = %v, want ErrMissingSnapshot", err)
	}
}

func TestDailyReportNoEarlierSnapshot(t *testing.T) {
	r, st, _ := newTestRunner(t, nil)
	ctx := context.Background()

	if err := st.Save(ctx, "2025-08-23", hosts([3]string{"1", "a", "10.0.0.1"})); err != nil {
		t.Fatal(err)
	}
	err := r.DailyReport(ctx, "", "")
	if !errors.Is(err, ErrMissingSnapshot) {
		t.Errorf("DailyReport error = %v, want ErrMissingSnapshot", err)
	}
}

func TestDailyReportExplicitDates(t *testing.T) {
	r, st, reportsDir := newTestRunner(t, nil)
	ctx := context.Background()

	if err := st.Save(ctx, "2025-08-10", hosts([3]string{"1", "a", "10.0.0.1"})); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, "2025-08-15", hosts([3]string{"1", "a", "10.0.0.2"})); err != nil {
		t.Fatal(err)
	}

	if err := r.DailyReport(ctx, "2025-08-15", "2025-08-10"); err != nil {
		t.Fatalf("DailyReport error: %v", err)
	}
	body := readOnlyReport(t, reportsDir)
	if !strings.Contains(body, "IP address: 10.0.0.1 -> 10.0.0.2") {
		t.Errorf("modified host missing from report:\n%s", body)
	}

	if err := r.DailyReport(ctx, "15/08/2025", ""); err == nil {
		t.Error("malformed current date accepted")
	}
}

func TestPeriodReportInsufficientData(t *testing.T) {
	r, st, _ := newTestRunner(t, nil)
	ctx := context.Background()

	if err := st.Save(ctx, "2025-08-23", hosts([3]string{"1", "a", "10.0.0.1"})); err != nil {
		t.Fatal(err)
	}
	err := r.PeriodReport(ctx, "Weekly", 7)
	if !errors.Is(err, period.ErrInsufficientData) {
		t.Errorf("PeriodReport error = %v, want ErrInsufficientData", err)
	}
}

func TestPeriodReportRendersWindow(t *testing.T) {
	r, st, reportsDir := newTestRunner(t, nil)
	ctx := context.Background()

	if err := st.Save(ctx, "2025-08-19", hosts([3]string{"1", "a", "10.0.0.1"})); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, "2025-08-21", hosts([3]string{"1", "a", "10.0.0.1"}, [3]string{"2", "b", "10.0.0.2"})); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, "2025-08-23", hosts([3]string{"2", "b", "10.0.0.2"})); err != nil {
		t.Fatal(err)
	}
	// Outside the 7-day window; must not affect endpoint totals.
	if err := st.Save(ctx, "2025-08-01", hosts([3]string{"z", "ancient", "10.9.9.9"})); err != nil {
		t.Fatal(err)
	}

	if err := r.PeriodReport(ctx, "Weekly", 7); err != nil {
		t.Fatalf("PeriodReport error: %v", err)
	}

	body := readOnlyReport(t, reportsDir)
	for _, want := range []string{
		"Current date:  2025-08-23",
		"Previous date: 2025-08-19",
		"CHURN OVER 2 DAILY COMPARISONS",
		"HOSTS ADDED (1)",
		"HOSTS REMOVED (1)",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("period report missing %q:\n%s", want, body)
		}
	}
}

// readOnlyReport reads the single report file the test produced.
func readOnlyReport(t *testing.T, dir string) string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read reports dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("reports dir holds %d files, want 1", len(entries))
	}
	body, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read report file: %v", err)
	}
	return string(body)
}
