// Package config loads runtime configuration from the environment, with an
// optional .env file for local deployments.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every tunable for collection, storage, reporting and
// delivery. Defaults match a single-node deployment collecting from Zabbix
// into a local SQLite file.
type Config struct {
	// Source selects the inventory backend: "zabbix" or "ldap".
	Source string `env:"SOURCE" envDefault:"zabbix"`

	ZabbixURL                string        `env:"ZABBIX_URL"`
	ZabbixUsername           string        `env:"ZABBIX_USERNAME"`
	ZabbixPassword           string        `env:"ZABBIX_PASSWORD"`
	ZabbixTimeout            time.Duration `env:"ZABBIX_TIMEOUT" envDefault:"30s"`
	ZabbixInsecureSkipVerify bool          `env:"ZABBIX_INSECURE_SKIP_VERIFY" envDefault:"false"`

	LDAPURL      string `env:"LDAP_URL"`
	LDAPBaseDN   string `env:"LDAP_BASEDN"`
	LDAPUsername string `env:"LDAP_USERNAME"`
	LDAPPassword string `env:"LDAP_PASSWORD"`
	LDAPPageSize uint32 `env:"LDAP_PAGESIZE" envDefault:"500"`

	// DatabaseDriver selects the snapshot store: "sqlite" or "postgres".
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"zbxspy_hosts.db"`
	DatabaseURL    string `env:"DATABASE_URL"`

	ReportsDir string `env:"REPORTS_DIR" envDefault:"reports"`
	// ReportFormat is "html", "text" or "both".
	ReportFormat string `env:"REPORT_FORMAT" envDefault:"both"`

	SendEmail    bool   `env:"SEND_EMAIL" envDefault:"false"`
	SMTPServer   string `env:"SMTP_SERVER" envDefault:"smtp.office365.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	// SMTPUseTLS selects STARTTLS when true, implicit TLS otherwise.
	SMTPUseTLS         bool     `env:"SMTP_USE_TLS" envDefault:"true"`
	EmailRecipients    []string `env:"EMAIL_RECIPIENTS"`
	EmailAttachReports bool     `env:"EMAIL_ATTACH_REPORTS" envDefault:"true"`

	ScheduleDaily   string `env:"SCHEDULE_DAILY" envDefault:"0 6 * * *"`
	ScheduleWeekly  string `env:"SCHEDULE_WEEKLY" envDefault:"0 18 * * FRI"`
	ScheduleMonthly string `env:"SCHEDULE_MONTHLY" envDefault:"0 8 * * *"`

	WebAddr string `env:"WEB_ADDR" envDefault:":8080"`

	// LogFormat is "text" or "json"; LogLevel is "debug", "info", "warn"
	// or "error".
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads envFile when it exists, then parses the process environment.
// A missing env file is not an error; invalid settings are.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Source {
	case "zabbix":
		if c.ZabbixURL == "" || c.ZabbixUsername == "" || c.ZabbixPassword == "" {
			return fmt.Errorf("zabbix source requires ZABBIX_URL, ZABBIX_USERNAME and ZABBIX_PASSWORD")
		}
	case "ldap":
		if c.LDAPURL == "" || c.LDAPBaseDN == "" {
			return fmt.Errorf("ldap source requires LDAP_URL and LDAP_BASEDN")
		}
	default:
		return fmt.Errorf("unknown SOURCE %q, expected zabbix or ldap", c.Source)
	}

	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("sqlite driver requires DATABASE_PATH")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres driver requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q, expected sqlite or postgres", c.DatabaseDriver)
	}

	switch c.ReportFormat {
	case "html", "text", "both":
	default:
		return fmt.Errorf("unknown REPORT_FORMAT %q, expected html, text or both", c.ReportFormat)
	}

	return nil
}

// EmailEnabled resolves the effective email switch. Requested delivery
// without credentials or recipients downgrades to a warning instead of
// failing the pipeline.
func (c Config) EmailEnabled(log *slog.Logger) bool {
	if !c.SendEmail {
		return false
	}
	if c.SMTPUsername == "" || c.SMTPPassword == "" {
		log.Warn("email requested but smtp credentials missing, disabling delivery")
		return false
	}
	if len(c.EmailRecipients) == 0 {
		log.Warn("email requested but no recipients configured, disabling delivery")
		return false
	}
	return true
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
