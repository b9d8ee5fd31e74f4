// Package cmd wires the CLI: every command loads configuration, opens the
// configured snapshot store and hands off to the jobs layer.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"f0oster/zbxspy/collector"
	"f0oster/zbxspy/collector/activedirectory"
	"f0oster/zbxspy/collector/zabbix"
	"f0oster/zbxspy/config"
	"f0oster/zbxspy/email"
	"f0oster/zbxspy/jobs"
	"f0oster/zbxspy/report"
	"f0oster/zbxspy/store"
	"f0oster/zbxspy/store/postgres"
	"f0oster/zbxspy/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "zbxspy",
	Short: "Host inventory snapshots and change reports",
	Long: "zbxspy collects the host inventory from Zabbix or Active Directory,\n" +
		"stores one snapshot per calendar date and reports added, removed and\n" +
		"modified hosts across daily, weekly and monthly windows.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", ".env", "Path to an env file loaded before the process environment")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(periodCmd)
	rootCmd.AddCommand(datesCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and builds the logger shared by one command
// invocation.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens the snapshot store backend selected by DATABASE_DRIVER.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		return postgres.Open(ctx, cfg.DatabaseURL, log)
	default:
		return sqlite.Open(cfg.DatabasePath, log)
	}
}

// newSourceFactory defers opening the inventory source until a collection
// run actually needs it, so report-only commands never dial the backend.
func newSourceFactory(cfg config.Config) jobs.SourceFactory {
	return func(ctx context.Context, log *slog.Logger) (collector.Source, error) {
		switch cfg.Source {
		case "ldap":
			return activedirectory.Connect(activedirectory.Config{
				URL:      cfg.LDAPURL,
				BaseDN:   cfg.LDAPBaseDN,
				Username: cfg.LDAPUsername,
				Password: cfg.LDAPPassword,
				PageSize: cfg.LDAPPageSize,
			}, log)
		default:
			return zabbix.Connect(ctx, zabbix.Config{
				URL:                cfg.ZabbixURL,
				Username:           cfg.ZabbixUsername,
				Password:           cfg.ZabbixPassword,
				Timeout:            cfg.ZabbixTimeout,
				InsecureSkipVerify: cfg.ZabbixInsecureSkipVerify,
			}, log)
		}
	}
}

func newRunner(cfg config.Config, st store.Store, log *slog.Logger) (*jobs.Runner, error) {
	gen, err := report.NewGenerator(cfg.ReportsDir, log)
	if err != nil {
		return nil, fmt.Errorf("report generator: %w", err)
	}

	var sender *email.Sender
	if cfg.EmailEnabled(log) {
		sender = email.NewSender(email.Config{
			Server:   cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			UseTLS:   cfg.SMTPUseTLS,
		}, log)
	}

	return jobs.NewRunner(cfg, st, newSourceFactory(cfg), gen, sender, log), nil
}
