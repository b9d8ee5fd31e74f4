package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ZABBIX_URL", "https://zabbix.example.com")
	t.Setenv("ZABBIX_USERNAME", "api-user")
	t.Setenv("ZABBIX_PASSWORD", "secret")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Source != "zabbix" {
		t.Errorf("Source = %q, want zabbix", cfg.Source)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabasePath != "zbxspy_hosts.db" {
		t.Errorf("database defaults = %q/%q", cfg.DatabaseDriver, cfg.DatabasePath)
	}
	if cfg.ReportFormat != "both" || cfg.ReportsDir != "reports" {
		t.Errorf("report defaults = %q/%q", cfg.ReportFormat, cfg.ReportsDir)
	}
	if cfg.ZabbixTimeout != 30*time.Second {
		t.Errorf("ZabbixTimeout = %v, want 30s", cfg.ZabbixTimeout)
	}
	if cfg.SendEmail {
		t.Error("SendEmail defaults to true, want false")
	}
	if cfg.ScheduleDaily != "0 6 * * *" {
		t.Errorf("ScheduleDaily = %q", cfg.ScheduleDaily)
	}
}

func TestLoadRecipientsSplit(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_RECIPIENTS", "ops@example.com,noc@example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := []string{"ops@example.com", "noc@example.com"}
	if !reflect.DeepEqual(cfg.EmailRecipients, want) {
		t.Errorf("EmailRecipients = %v, want %v", cfg.EmailRecipients, want)
	}
}

func TestLoadEnvFile(t *testing.T) {
	setRequired(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "REPORTS_DIR=/var/lib/zbxspy/reports\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ReportsDir != "/var/lib/zbxspy/reports" {
		t.Errorf("ReportsDir = %q, env file not applied", cfg.ReportsDir)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	setRequired(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Load with missing env file error = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing zabbix credentials", map[string]string{
			"ZABBIX_URL": "https://zabbix.example.com",
		}},
		{"ldap without base dn", map[string]string{
			"SOURCE":   "ldap",
			"LDAP_URL": "ldap://dc01.example.com",
		}},
		{"unknown source", map[string]string{
			"SOURCE": "cmdb",
		}},
		{"postgres without url", map[string]string{
			"ZABBIX_URL": "https://z", "ZABBIX_USERNAME": "u", "ZABBIX_PASSWORD": "p",
			"DATABASE_DRIVER": "postgres",
		}},
		{"bad report format", map[string]string{
			"ZABBIX_URL": "https://z", "ZABBIX_USERNAME": "u", "ZABBIX_PASSWORD": "p",
			"REPORT_FORMAT": "pdf",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("Load succeeded, want validation error")
			}
		})
	}
}

func TestEmailEnabled(t *testing.T) {
	log := discardLogger()

	cfg := Config{SendEmail: false}
	if cfg.EmailEnabled(log) {
		t.Error("disabled switch reported enabled")
	}

	cfg = Config{SendEmail: true, SMTPUsername: "u", SMTPPassword: "p"}
	if cfg.EmailEnabled(log) {
		t.Error("no recipients should disable delivery")
	}

	cfg.EmailRecipients = []string{"ops@example.com"}
	if !cfg.EmailEnabled(log) {
		t.Error("complete email config reported disabled")
	}

	cfg.SMTPPassword = ""
	if cfg.EmailEnabled(log) {
		t.Error("missing credentials should disable delivery")
	}
}
