package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/actorflow/actorflow/pkg/actors"
	"github.com/actorflow/actorflow/pkg/config"
	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/stores"
	"github.com/actorflow/actorflow/pkg/telemetry"
)

func newRunCommand() *cobra.Command {
	var (
		workflowFile string
		watch        bool
		historyDB    string
	)

	cmd := &cobra.Command{
		Use:   "run [workflow-file]",
		Short: "Run a workflow",
		Long: `Load a workflow document, build the actor graph and run it once.

Every sink actor is run in declaration order, then every actor is
finalized. An actor that dies aborts the run and the command exits with a
non-zero status.

With --watch the workflow is run again every time the document changes,
until the process is interrupted. With --history every run is recorded in
a SQLite database.`,
		Example: `  # Run a workflow
  actorflow run --workflow-file people.yaml

  # Re-run whenever the document changes
  actorflow run people.cue --watch

  # Record run history
  actorflow run people.yaml --history runs.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				if workflowFile != "" && workflowFile != args[0] {
					return fmt.Errorf("workflow file given twice: %s and %s", workflowFile, args[0])
				}
				workflowFile = args[0]
			}
			if workflowFile == "" {
				return errors.New("a workflow file is required (--workflow-file)")
			}

			ctx := cmd.Context()
			tel, err := newTelemetry(ctx)
			if err != nil {
				return err
			}
			defer shutdownTelemetry(tel)

			r := &runner{path: workflowFile, tel: tel, registry: actors.NewRegistry()}
			if historyDB != "" {
				store, err := stores.OpenSQLiteStore(ctx, historyDB)
				if err != nil {
					return fmt.Errorf("failed to open history database: %w", err)
				}
				defer store.Close()
				r.history = store
			}

			doc, err := config.LoadFile(workflowFile)
			if err != nil {
				return err
			}
			runErr := r.run(ctx, doc)
			if !watch {
				return runErr
			}
			if runErr != nil {
				tel.Logger.WithError(runErr).Error("workflow run failed")
			}

			w := config.NewWatcher(workflowFile, tel.Logger)
			tel.Logger.WithField("file", workflowFile).Info("watching workflow for changes")
			err = w.Watch(ctx, func(doc *config.Document) error {
				return r.run(ctx, doc)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&workflowFile, "workflow-file", "f", "", "workflow document to run")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run the workflow when the document changes")
	cmd.Flags().StringVar(&historyDB, "history", envOr("ACTORFLOW_HISTORY_DB", ""), "SQLite database recording run history")

	return cmd
}

// runner builds and runs one workflow per call.
type runner struct {
	path     string
	tel      *telemetry.Telemetry
	registry engine.ActorRegistry
	history  stores.RunStore
}

func (r *runner) run(ctx context.Context, doc *config.Document) error {
	opts := []engine.Option{engine.WithTelemetry(r.tel)}
	if r.history != nil {
		opts = append(opts, engine.WithObserver(stores.NewRunRecorder(r.history, r.tel.Logger)))
	}

	wf, err := engine.Build(doc.ToDefinition(r.path), r.registry, opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := wf.Run(ctx); err != nil {
		return err
	}

	wf.Logger().WithField("duration", time.Since(start).String()).Info("workflow completed")
	return nil
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		tel.Logger.WithError(err).Warn("telemetry shutdown failed")
	}
}
