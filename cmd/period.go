package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var periodCmd = &cobra.Command{
	Use:   "period [days]",
	Short: "Aggregate the trailing window of snapshots into one change report",
	Long: "Folds pairwise comparisons across every snapshot in the trailing window\n" +
		"into a single report. A host that changes on several days appears once\n" +
		"per change, so the report surfaces churn rather than only net state.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days := 7
		if len(args) == 1 {
			var err error
			days, err = strconv.Atoi(args[0])
			if err != nil || days < 2 {
				return fmt.Errorf("days must be an integer of at least 2, got %q", args[0])
			}
		}

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

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = periodName(days)
		}
		return runner.PeriodReport(ctx, name, days)
	},
}

func init() {
	periodCmd.Flags().String("name", "", "Report label (default derived from the day count)")
}

func periodName(days int) string {
	switch {
	case days == 7:
		return "Weekly"
	case days >= 28 && days <= 31:
		return "Monthly"
	default:
		return fmt.Sprintf("%d-Day", days)
	}
}
