package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/actorflow/actorflow/pkg/telemetry"
)

// Workflow owns a graph of actors and drives it once. It is the context
// object handed to every actor factory: it carries the logger, the
// observers and the fatal-abort signal.
type Workflow struct {
	id     string
	name   string
	source string

	actors []*Actor
	byName map[string]*Actor

	logger    *telemetry.Logger
	observers []Observer

	ctx     context.Context
	cancel  context.CancelCauseFunc
	ran     bool
	running bool
	stats   Stats
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithName sets the workflow name used in logs, metrics and history.
func WithName(name string) Option {
	return func(wf *Workflow) { wf.name = name }
}

// WithSource records where the workflow was loaded from.
func WithSource(source string) Option {
	return func(wf *Workflow) { wf.source = source }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(wf *Workflow) { wf.id = id }
}

// WithLogger sets the base logger.
func WithLogger(logger *telemetry.Logger) Option {
	return func(wf *Workflow) { wf.logger = logger }
}

// WithObserver adds a run observer.
func WithObserver(o Observer) Option {
	return func(wf *Workflow) { wf.observers = append(wf.observers, o) }
}

// WithTelemetry reports the run to tel and logs through tel.Logger.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(wf *Workflow) {
		wf.logger = tel.Logger
		wf.observers = append(wf.observers, NewTelemetryObserver(tel))
	}
}

// New creates an empty workflow.
func New(opts ...Option) *Workflow {
	wf := &Workflow{
		id:     uuid.New().String(),
		name:   "workflow",
		byName: make(map[string]*Actor),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(wf)
	}
	if wf.logger == nil {
		wf.logger = telemetry.NewNopLogger()
	}
	wf.logger = wf.logger.WithRun(wf.id, wf.name)
	return wf
}

// ID returns the run ID.
func (wf *Workflow) ID() string { return wf.id }

// Name returns the workflow name.
func (wf *Workflow) Name() string { return wf.name }

// Source returns the document the workflow was built from, if any.
func (wf *Workflow) Source() string { return wf.source }

// Logger returns the run logger.
func (wf *Workflow) Logger() *telemetry.Logger { return wf.logger }

// Context returns the run context, or context.Background before Run.
func (wf *Workflow) Context() context.Context { return wf.ctx }

// NewActor creates an actor bound to the workflow. The actor still has to
// be added with AddActor.
func (wf *Workflow) NewActor(name, typeName string, b Behavior) *Actor {
	if b == nil {
		b = Relay{}
	}
	return &Actor{
		name:     name,
		typeName: typeName,
		workflow: wf,
		behavior: b,
		logger:   wf.logger.WithActor(name, typeName),
	}
}

// AddActor appends an actor to the workflow.
func (wf *Workflow) AddActor(a *Actor) {
	wf.actors = append(wf.actors, a)
	if _, exists := wf.byName[a.name]; !exists {
		wf.byName[a.name] = a
	}
}

// Actors returns the actors in registration order.
func (wf *Workflow) Actors() []*Actor {
	return append([]*Actor(nil), wf.actors...)
}

// Actor returns the first actor registered under name.
func (wf *Workflow) Actor(name string) (*Actor, bool) {
	a, ok := wf.byName[name]
	return a, ok
}

// Sinks returns the actors without consumers, in registration order.
func (wf *Workflow) Sinks() []*Actor {
	sinks := make([]*Actor, 0)
	for _, a := range wf.actors {
		if !a.HasConsumers() {
			sinks = append(sinks, a)
		}
	}
	return sinks
}

// Run drives the workflow once: every sink is run in registration order,
// then every actor is finalized in registration order. A Die anywhere
// stops the pass immediately and Run returns the fatal error; finalizers
// not yet reached are skipped, and actors that were set up are released
// through Releaser instead.
func (wf *Workflow) Run(ctx context.Context) (err error) {
	if wf.ran {
		return NewRuntimeError("workflow has already run", nil).WithCode(ErrCodeAlreadyRun)
	}
	wf.ran = true

	if err := wf.Validate(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	wf.ctx, wf.cancel = runCtx, cancel
	wf.running = true
	defer func() { wf.running = false }()

	start := time.Now()
	wf.ctx = wf.notifyRunStart(wf.ctx)
	defer func() {
		wf.notifyRunEnd(err, time.Since(start))
	}()

	err = wf.guard(func() {
		sinks := wf.Sinks()
		if len(sinks) == 0 && len(wf.actors) > 0 {
			wf.logger.Warn("workflow has no sink actors; nothing will run")
		}

		wf.logger.Debugf("running %d sink actors", len(sinks))
		for _, a := range sinks {
			a.Run()
		}

		for _, a := range wf.actors {
			a.Finalize()
		}
	})
	if err != nil {
		wf.releaseAll()
	}
	return err
}

// releaseAll frees the actors an aborted run left set up. A Die inside a
// Releaser is already logged and does not stop the others.
func (wf *Workflow) releaseAll() {
	for _, a := range wf.actors {
		_ = wf.guard(a.release)
	}
}

// Log writes an informational message.
func (wf *Workflow) Log(msg string) {
	wf.logger.Info(msg)
}

// LogError writes an error message.
func (wf *Workflow) LogError(msg string) {
	wf.logger.Error(msg)
}

// Die logs msg at error level and aborts the run. It does not return.
func (wf *Workflow) Die(msg string) {
	wf.abort(wf.logger, msg, NewFatalError(msg, nil))
}

type fatalSignal struct {
	err *EngineError
}

func (wf *Workflow) abort(logger *telemetry.Logger, msg string, fatal *EngineError) {
	logger.Error(msg)
	if wf.cancel != nil {
		wf.cancel(fatal)
	}
	panic(fatalSignal{err: fatal})
}

// guard runs fn and converts an abort into an error. Other panics pass
// through.
func (wf *Workflow) guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(fatalSignal)
			if !ok {
				panic(r)
			}
			err = sig.err
		}
	}()
	fn()
	return nil
}

// String renders the workflow for debugging.
func (wf *Workflow) String() string {
	return fmt.Sprintf("Workflow{name=%s, id=%s, actors=%d}", wf.name, wf.id, len(wf.actors))
}
