package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/actorflow/actorflow/pkg/actors"
)

func newTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the registered actor types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := actors.NewRegistry()

			aliases := make(map[string][]string)
			for alias, target := range reg.Aliases() {
				aliases[target] = append(aliases[target], alias)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tALIASES\tDESCRIPTION")
			for _, e := range reg.List() {
				names := aliases[e.Type]
				sort.Strings(names)
				alias := "-"
				if len(names) > 0 {
					alias = fmt.Sprint(names)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Type, alias, e.Description)
			}
			return tw.Flush()
		},
	}

	return cmd
}
