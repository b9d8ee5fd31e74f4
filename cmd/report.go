package cmd

import (
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare two daily snapshots and render the change report",
	Long: "Compares the current snapshot against the previous one and writes the\n" +
		"configured report files. Without flags the current date is today and the\n" +
		"previous date is the newest stored snapshot before it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := newRunner(cfg, st, log)
		if err != nil {
			return err
		}

		currentDate, _ := cmd.Flags().GetString("current")
		previousDate, _ := cmd.Flags().GetString("previous")
		return runner.DailyReport(ctx, currentDate, previousDate)
	},
}

func init() {
	reportCmd.Flags().String("current", "", "Current snapshot date (YYYY-MM-DD, default today)")
	reportCmd.Flags().String("previous", "", "Previous snapshot date (YYYY-MM-DD, default newest before current)")
}
