package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/telemetry"
)

// Actor is a graph node. It is both a Provider and a Consumer; what it
// does with records is decided by its Behavior.
type Actor struct {
	name     string
	typeName string
	workflow *Workflow
	behavior Behavior
	logger   *telemetry.Logger

	providers  []Provider
	consumers  []Consumer
	properties []*record.Property

	// started gates Run; setUp gates the Starter, which may also be
	// triggered by a record delivered before Run.
	started   bool
	setUp     bool
	finalized bool
}

// Name returns the instance name.
func (a *Actor) Name() string { return a.name }

// Type returns the registry type identifier.
func (a *Actor) Type() string { return a.typeName }

// Workflow returns the owning workflow.
func (a *Actor) Workflow() *Workflow { return a.workflow }

// Behavior returns the behavior strategy.
func (a *Actor) Behavior() Behavior { return a.behavior }

// Logger returns a logger carrying the actor's name and type.
func (a *Actor) Logger() *telemetry.Logger { return a.logger }

// Context returns the context of the current run. Blocking I/O inside a
// behavior should use it.
func (a *Actor) Context() context.Context { return a.workflow.Context() }

// Run starts the actor. Only the first call has an effect: it marks the
// actor started, performs setup, runs every provider in registration order
// and then lets a Producer emit.
func (a *Actor) Run() {
	if a.started {
		return
	}
	a.started = true
	a.ensureSetup()

	for _, p := range a.providers {
		p.Run()
	}

	if p, ok := a.behavior.(Producer); ok {
		if err := p.Produce(a); err != nil {
			a.die(NewRuntimeError("produce failed", err).WithOperation("produce"))
		}
	}
}

// HandleRecord delivers a record to the actor. Without a Handler the
// record is relayed to every consumer. Records relayed after Run has
// returned are logged and dropped.
func (a *Actor) HandleRecord(r *record.Record) {
	a.ensureSetup()
	a.workflow.notifyRecord(a)

	h, ok := a.behavior.(Handler)
	if !ok {
		a.Emit(r)
		return
	}

	if err := h.Handle(a, r); err != nil {
		a.logger.WithError(err).Error("record skipped")
		a.workflow.notifySkip(a, err)
	}
}

// Emit forwards r to every consumer in registration order. It aborts the
// run if the run context has been cancelled. Once Run has returned the
// record is logged and dropped instead.
func (a *Actor) Emit(r *record.Record) {
	ctx := a.workflow.Context()
	if ctx.Err() != nil {
		if !a.workflow.running {
			a.logger.WithError(context.Cause(ctx)).Error("record dropped: workflow is not running")
			return
		}
		a.die(NewRuntimeError("workflow cancelled", context.Cause(ctx)).WithOperation("emit"))
	}
	for _, c := range a.consumers {
		c.HandleRecord(r)
	}
}

// Finalize runs the behavior's Finalizer, if any.
func (a *Actor) Finalize() {
	a.finalized = true
	f, ok := a.behavior.(Finalizer)
	if !ok {
		a.workflow.notifyFinalize(a, nil)
		return
	}
	err := f.Finalize(a)
	a.workflow.notifyFinalize(a, err)
	if err != nil {
		a.die(NewRuntimeError("finalize failed", err).WithOperation("finalize"))
	}
}

// release runs the behavior's Releaser if the actor was set up and not
// finalized.
func (a *Actor) release() {
	if !a.setUp || a.finalized {
		return
	}
	a.finalized = true
	r, ok := a.behavior.(Releaser)
	if !ok {
		return
	}
	if err := r.Release(a); err != nil {
		a.logger.WithError(err).Warn("failed to release actor resources")
	}
}

func (a *Actor) ensureSetup() {
	if a.setUp {
		return
	}
	a.setUp = true
	a.workflow.notifyActorStart(a)

	if s, ok := a.behavior.(Starter); ok {
		if err := s.Start(a); err != nil {
			a.die(NewRuntimeError("start failed", err).WithOperation("start"))
		}
	}
}

// AddProvider appends an upstream provider.
func (a *Actor) AddProvider(p Provider) {
	a.providers = append(a.providers, p)
}

// AddConsumer appends a downstream consumer.
func (a *Actor) AddConsumer(c Consumer) {
	a.consumers = append(a.consumers, c)
}

// AddProperty appends a configuration property.
func (a *Actor) AddProperty(p *record.Property) {
	a.properties = append(a.properties, p)
}

// Providers returns a copy of the provider list.
func (a *Actor) Providers() []Provider {
	return append([]Provider(nil), a.providers...)
}

// Consumers returns a copy of the consumer list.
func (a *Actor) Consumers() []Consumer {
	return append([]Consumer(nil), a.consumers...)
}

// Properties returns a copy of the configuration properties.
func (a *Actor) Properties() []*record.Property {
	return append([]*record.Property(nil), a.properties...)
}

// HasConsumers reports whether any consumer is registered.
func (a *Actor) HasConsumers() bool {
	return len(a.consumers) > 0
}

// HasStarted reports whether Run has been called.
func (a *Actor) HasStarted() bool {
	return a.started
}

// FirstProperty returns the first configuration property called name, or nil.
func (a *Actor) FirstProperty(name string) *record.Property {
	for _, p := range a.properties {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// FirstPropertyValue returns the text value of the first configuration
// property called name.
func (a *Actor) FirstPropertyValue(name string) (string, bool) {
	p := a.FirstProperty(name)
	if p == nil {
		return "", false
	}
	return p.StringValue(), true
}

// PropertyOr returns the property value or def when absent.
func (a *Actor) PropertyOr(name, def string) string {
	if v, ok := a.FirstPropertyValue(name); ok {
		return v
	}
	return def
}

// RequireProperty returns a non-empty property value or aborts the run.
func (a *Actor) RequireProperty(name string) string {
	v, ok := a.FirstPropertyValue(name)
	if !ok || v == "" {
		a.die(NewConfigurationError(fmt.Sprintf("missing required property %q", name), nil).
			WithCode(ErrCodeMissingProperty).
			WithDetail("property", name))
	}
	return v
}

// BoolProperty parses a boolean property, aborting the run on bad input.
func (a *Actor) BoolProperty(name string, def bool) bool {
	v, ok := a.FirstPropertyValue(name)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		a.die(invalidProperty(name, v, err))
	}
	return b
}

// IntProperty parses an integer property, aborting the run on bad input.
func (a *Actor) IntProperty(name string, def int) int {
	v, ok := a.FirstPropertyValue(name)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		a.die(invalidProperty(name, v, err))
	}
	return n
}

// DurationProperty parses a time.Duration property, aborting the run on bad input.
func (a *Actor) DurationProperty(name string, def time.Duration) time.Duration {
	v, ok := a.FirstPropertyValue(name)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		a.die(invalidProperty(name, v, err))
	}
	return d
}

func invalidProperty(name, value string, err error) *EngineError {
	return NewConfigurationError(fmt.Sprintf("invalid value %q for property %q", value, name), err).
		WithCode(ErrCodeInvalidProperty).
		WithDetail("property", name)
}

// Log writes an informational message.
func (a *Actor) Log(msg string) {
	a.logger.Info(msg)
}

// LogError writes an error message. The run continues.
func (a *Actor) LogError(msg string) {
	a.logger.Error(msg)
}

// Die logs msg at error level and aborts the whole run. It does not return.
func (a *Actor) Die(msg string) {
	a.workflow.abort(a.logger, msg, NewFatalError(msg, nil).WithActor(a.name))
}

// Dief is Die with formatting.
func (a *Actor) Dief(format string, args ...any) {
	a.Die(fmt.Sprintf(format, args...))
}

func (a *Actor) die(cause *EngineError) {
	cause.WithActor(a.name)
	fatal := &EngineError{
		Class:     ErrorClassFatal,
		Code:      cause.Code,
		Message:   "actor aborted",
		Actor:     a.name,
		Operation: cause.Operation,
		Err:       cause,
	}
	if fatal.Code == "" {
		fatal.Code = ErrCodeFatal
	}
	msg := cause.Message
	if cause.Err != nil {
		msg = fmt.Sprintf("%s: %v", cause.Message, cause.Err)
	}
	a.workflow.abort(a.logger, msg, fatal)
}

// String renders the actor as name(type).
func (a *Actor) String() string {
	return fmt.Sprintf("%s(%s)", a.name, a.typeName)
}
