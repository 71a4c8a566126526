package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/actorflow/actorflow/pkg/telemetry"
)

// Observer is notified of run lifecycle events. Callbacks run on the
// driving goroutine, inside the record flow, so they must be quick.
type Observer interface {
	// RunStarted may return a derived context (for example one holding a
	// span); actors see it through Actor.Context.
	RunStarted(ctx context.Context, wf *Workflow) context.Context
	RunFinished(ctx context.Context, wf *Workflow, err error, elapsed time.Duration)
	ActorStarted(ctx context.Context, a *Actor)
	RecordHandled(ctx context.Context, a *Actor)
	RecordSkipped(ctx context.Context, a *Actor, err error)
	ActorFinalized(ctx context.Context, a *Actor, err error)
}

// NopObserver implements Observer with empty methods. Embed it to
// override only some callbacks.
type NopObserver struct{}

func (NopObserver) RunStarted(ctx context.Context, _ *Workflow) context.Context { return ctx }
func (NopObserver) RunFinished(context.Context, *Workflow, error, time.Duration) {}
func (NopObserver) ActorStarted(context.Context, *Actor) {}
func (NopObserver) RecordHandled(context.Context, *Actor) {}
func (NopObserver) RecordSkipped(context.Context, *Actor, error) {}
func (NopObserver) ActorFinalized(context.Context, *Actor, error) {}

// Stats counts what happened during a run.
type Stats struct {
	ActorsStarted  int
	RecordsHandled int
	RecordsSkipped int
}

// Stats returns the counters of the current or last run.
func (wf *Workflow) Stats() Stats {
	return wf.stats
}

func (wf *Workflow) notifyRunStart(ctx context.Context) context.Context {
	for _, o := range wf.observers {
		ctx = o.RunStarted(ctx, wf)
	}
	return ctx
}

func (wf *Workflow) notifyRunEnd(err error, elapsed time.Duration) {
	for _, o := range wf.observers {
		o.RunFinished(wf.ctx, wf, err, elapsed)
	}
}

func (wf *Workflow) notifyActorStart(a *Actor) {
	wf.stats.ActorsStarted++
	for _, o := range wf.observers {
		o.ActorStarted(wf.ctx, a)
	}
}

func (wf *Workflow) notifyRecord(a *Actor) {
	wf.stats.RecordsHandled++
	for _, o := range wf.observers {
		o.RecordHandled(wf.ctx, a)
	}
}

func (wf *Workflow) notifySkip(a *Actor, err error) {
	wf.stats.RecordsSkipped++
	for _, o := range wf.observers {
		o.RecordSkipped(wf.ctx, a, err)
	}
}

func (wf *Workflow) notifyFinalize(a *Actor, err error) {
	for _, o := range wf.observers {
		o.ActorFinalized(wf.ctx, a, err)
	}
}

// TelemetryObserver reports runs to metrics, a run span and the event
// publisher.
type TelemetryObserver struct {
	tel  *telemetry.Telemetry
	span trace.Span
}

// NewTelemetryObserver creates an observer for tel.
func NewTelemetryObserver(tel *telemetry.Telemetry) *TelemetryObserver {
	return &TelemetryObserver{tel: tel}
}

func (o *TelemetryObserver) RunStarted(ctx context.Context, wf *Workflow) context.Context {
	ctx, o.span = o.tel.Tracer.StartRunSpan(ctx, wf.ID(), wf.Name())
	o.tel.Metrics.RecordRunStarted(wf.Name())
	o.publish(telemetry.Event{
		Type:     telemetry.EventTypeRunStarted,
		RunID:    wf.ID(),
		Workflow: wf.Name(),
		Message:  "workflow run started",
		Data:     map[string]interface{}{"actors": len(wf.actors), "source": wf.Source()},
	})
	return ctx
}

func (o *TelemetryObserver) RunFinished(_ context.Context, wf *Workflow, err error, elapsed time.Duration) {
	status := "success"
	event := telemetry.Event{
		Type:     telemetry.EventTypeRunCompleted,
		RunID:    wf.ID(),
		Workflow: wf.Name(),
		Message:  "workflow run completed",
		Data: map[string]interface{}{
			"duration":        elapsed.Seconds(),
			"records_handled": wf.stats.RecordsHandled,
			"records_skipped": wf.stats.RecordsSkipped,
		},
	}

	if err != nil {
		status = "failed"
		class, _ := classOf(err)
		o.tel.Metrics.RecordError(string(class))
		event.Type = telemetry.EventTypeRunFailed
		event.Level = telemetry.EventLevelError
		event.Message = err.Error()
		if o.span != nil {
			o.span.SetAttributes(telemetry.AttrErrorClass.String(string(class)))
			telemetry.RecordError(o.span, err)
		}
	} else if o.span != nil {
		telemetry.RecordSuccess(o.span)
	}

	o.tel.Metrics.RecordRunCompleted(wf.Name(), status, elapsed)
	o.publish(event)
	if o.span != nil {
		o.span.End()
	}
}

func (o *TelemetryObserver) ActorStarted(_ context.Context, a *Actor) {
	o.tel.Metrics.RecordActorStarted(a.Type())
	if o.span != nil {
		telemetry.AddActorEvent(o.span, telemetry.EventTypeActorStarted, a.Name(), a.Type())
	}
	o.publish(telemetry.Event{
		Type:      telemetry.EventTypeActorStarted,
		RunID:     a.workflow.ID(),
		Workflow:  a.workflow.Name(),
		Actor:     a.Name(),
		ActorType: a.Type(),
		Message:   "actor started",
	})
}

func (o *TelemetryObserver) RecordHandled(_ context.Context, a *Actor) {
	o.tel.Metrics.RecordRecordHandled(a.Name(), a.Type())
}

func (o *TelemetryObserver) RecordSkipped(_ context.Context, a *Actor, err error) {
	o.tel.Metrics.RecordRecordSkipped(a.Name(), a.Type())
	o.publish(telemetry.Event{
		Type:      telemetry.EventTypeRecordSkipped,
		RunID:     a.workflow.ID(),
		Workflow:  a.workflow.Name(),
		Actor:     a.Name(),
		ActorType: a.Type(),
		Level:     telemetry.EventLevelWarning,
		Message:   err.Error(),
	})
}

func (o *TelemetryObserver) ActorFinalized(_ context.Context, a *Actor, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	o.tel.Metrics.RecordActorFinalized(a.Type(), status)
	if o.span != nil {
		telemetry.AddActorEvent(o.span, telemetry.EventTypeActorFinalized, a.Name(), a.Type())
	}
}

func (o *TelemetryObserver) publish(e telemetry.Event) {
	if err := o.tel.Events.Publish(e); err != nil {
		o.tel.Logger.WithError(err).Warn("failed to publish event")
	}
}
