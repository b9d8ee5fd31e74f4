package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List stored snapshot dates with their row counts",
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

		counts, err := st.CountByDate(ctx)
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			fmt.Println("no snapshots stored")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tROWS\tDISTINCT HOSTS")
		for _, c := range counts {
			fmt.Fprintf(tw, "%s\t%d\t%d\n", c.Date, c.Rows, c.Distinct)
		}
		return tw.Flush()
	},
}
