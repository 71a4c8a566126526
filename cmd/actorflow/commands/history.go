package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/actorflow/actorflow/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var (
		historyDB string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent workflow runs",
		Long: `List the most recent runs recorded with run --history, newest first.`,
		Example: `  actorflow history --history runs.db --limit 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if historyDB == "" {
				return errors.New("a history database is required (--history)")
			}

			ctx := cmd.Context()
			store, err := stores.OpenSQLiteStore(ctx, historyDB)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit, 0)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tWORKFLOW\tSTATUS\tSTARTED\tDURATION\tHANDLED\tSKIPPED\tERROR")
			for _, run := range runs {
				errMsg := "-"
				if run.Error != nil {
					errMsg = *run.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					run.ID,
					run.Workflow,
					run.Status,
					run.StartedAt.Local().Format(time.DateTime),
					run.Duration().Round(time.Millisecond),
					run.RecordsHandled,
					run.RecordsSkipped,
					errMsg,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&historyDB, "history", envOr("ACTORFLOW_HISTORY_DB", ""), "SQLite database holding run history")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to show")

	return cmd
}
