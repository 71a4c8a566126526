package stores

import (
	"context"
	"time"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/telemetry"
)

// RunRecorder writes run history as a workflow runs. Storage failures are
// logged and never affect the run.
type RunRecorder struct {
	engine.NopObserver

	store  RunStore
	logger *telemetry.Logger
}

// NewRunRecorder creates a recorder writing to store.
func NewRunRecorder(store RunStore, logger *telemetry.Logger) *RunRecorder {
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &RunRecorder{
		store:  store,
		logger: logger.NewComponentLogger("run-recorder"),
	}
}

// RunStarted inserts the run row.
func (r *RunRecorder) RunStarted(ctx context.Context, wf *engine.Workflow) context.Context {
	run := &Run{
		ID:         wf.ID(),
		Workflow:   wf.Name(),
		Source:     wf.Source(),
		Status:     RunStatusRunning,
		StartedAt:  time.Now(),
		ActorCount: len(wf.Actors()),
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		r.logger.WithError(err).Warn("failed to record run start")
	}
	return ctx
}

// RunFinished completes the run row. The run context may already be
// cancelled, so the write detaches from it.
func (r *RunRecorder) RunFinished(ctx context.Context, wf *engine.Workflow, err error, _ time.Duration) {
	stats := wf.Stats()
	result := RunResult{
		Status:         RunStatusCompleted,
		FinishedAt:     time.Now(),
		RecordsHandled: int64(stats.RecordsHandled),
		RecordsSkipped: int64(stats.RecordsSkipped),
	}
	if err != nil {
		msg := err.Error()
		result.Status = RunStatusFailed
		result.Error = &msg
	}

	if err := r.store.FinishRun(context.WithoutCancel(ctx), wf.ID(), result); err != nil {
		r.logger.WithError(err).Warn("failed to record run finish")
	}
}

// RecordSkipped logs the skip as a warning event.
func (r *RunRecorder) RecordSkipped(ctx context.Context, a *engine.Actor, err error) {
	r.appendEvent(ctx, &Event{
		RunID:   a.Workflow().ID(),
		Type:    telemetry.EventTypeRecordSkipped,
		Level:   EventLevelWarning,
		Actor:   a.Name(),
		Message: err.Error(),
	})
}

// ActorFinalized logs finalizer failures as error events.
func (r *RunRecorder) ActorFinalized(ctx context.Context, a *engine.Actor, err error) {
	if err == nil {
		return
	}
	r.appendEvent(ctx, &Event{
		RunID:   a.Workflow().ID(),
		Type:    telemetry.EventTypeActorFinalized,
		Level:   EventLevelError,
		Actor:   a.Name(),
		Message: err.Error(),
	})
}

func (r *RunRecorder) appendEvent(ctx context.Context, e *Event) {
	if err := r.store.AppendEvent(context.WithoutCancel(ctx), e); err != nil {
		r.logger.WithError(err).Warn("failed to record run event")
	}
}
