package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Snapshot store maintenance",
}

// dbCheckCmd reports duplicate host ids stored under one date, which
// upstream collection should never produce but a crashed run can leave
// behind. Duplicates skew raw totals against the identity-set sizes used
// for added/removed classification.
var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check stored snapshots for duplicate host rows",
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

		dupes, err := st.DuplicateHosts(ctx)
		if err != nil {
			return err
		}
		if len(dupes) == 0 {
			fmt.Println("no duplicate host rows found")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tHOST ID\tROWS")
		for _, d := range dupes {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", d.Date, d.HostID, d.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d duplicate (date, host) pairs; run 'zbxspy db dedupe' to clean them\n", len(dupes))
		return nil
	},
}

var dbDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Delete duplicate host rows, keeping the newest per (date, host)",
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

		removed, err := st.Dedupe(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d duplicate rows\n", removed)
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbDedupeCmd)
}
