package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/actorflow/actorflow/pkg/actors"
	"github.com/actorflow/actorflow/pkg/config"
)

func newGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <workflow-file>",
		Short: "Print the actor graph in DOT format",
		Example: `  # Render a workflow with graphviz
  actorflow graph people.yaml | dot -Tsvg > people.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := config.LoadWorkflow(args[0], actors.NewRegistry())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), wf.ToDOT())
			return nil
		},
	}

	return cmd
}
