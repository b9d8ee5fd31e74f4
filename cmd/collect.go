package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"f0oster/zbxspy/jobs"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect the current inventory and store it as today's snapshot",
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

		force, _ := cmd.Flags().GetBool("force")
		date, err := runner.Collect(ctx, force)
		if errors.Is(err, jobs.ErrAlreadyCollected) {
			return fmt.Errorf("%w (use --force to replace it)", err)
		}
		if err != nil {
			return err
		}

		fmt.Printf("snapshot stored for %s\n", date)
		return nil
	},
}

func init() {
	collectCmd.Flags().Bool("force", false, "Replace an existing snapshot for today")
}
