package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/songlex/pkg/songlex/report"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var dbFlag string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs stored in a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(cmd.Context(), dbFlag)
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("runs: no database given (use --db)")
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored runs")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Runs(runs, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database")
	return cmd
}
