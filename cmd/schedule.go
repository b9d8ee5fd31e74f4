package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"f0oster/zbxspy/schedule"
	"f0oster/zbxspy/web"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the collection and reporting daemon",
	Long: "Runs the standing jobs on their cron schedules: daily collection and\n" +
		"comparison report, weekly report, and monthly report on the first of the\n" +
		"month. The inspection API is served alongside on WEB_ADDR.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := newRunner(cfg, st, log)
		if err != nil {
			return err
		}

		sched := schedule.New(runner, log)
		if err := sched.Register(schedule.Specs{
			Daily:   cfg.ScheduleDaily,
			Weekly:  cfg.ScheduleWeekly,
			Monthly: cfg.ScheduleMonthly,
		}); err != nil {
			return err
		}

		srv := web.NewServer(st, cfg.WebAddr, log)
		go func() {
			if err := srv.Start(); err != nil && ctx.Err() == nil {
				log.Error("web server stopped", "error", err)
			}
		}()

		sched.Start()
		if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
			go sched.RunDailyNow()
		}

		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("web server shutdown", "error", err)
		}
		<-sched.Stop().Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().Bool("run-now", false, "Run the daily job immediately on startup")
}
