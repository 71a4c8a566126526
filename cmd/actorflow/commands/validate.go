package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/actorflow/actorflow/pkg/actors"
	"github.com/actorflow/actorflow/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <workflow-file>",
		Short: "Validate a workflow document",
		Long: `Parse a workflow document and build its actor graph without running it.

This command checks:
  - document syntax and schema
  - that every actor type is registered
  - that every provider and consumer reference names a declared actor
  - that the graph has no cycles`,
		Example: `  # Validate a workflow
  actorflow validate people.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := config.LoadWorkflow(args[0], actors.NewRegistry())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "workflow %q is valid: %d actors, %d sinks\n",
				wf.Name(), len(wf.Actors()), len(wf.Sinks()))
			return nil
		},
	}

	return cmd
}
