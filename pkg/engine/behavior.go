package engine

import "github.com/actorflow/actorflow/pkg/record"

// Provider is the capability to be asked to begin producing records.
type Provider interface {
	Run()
}

// Consumer is the capability to receive a record pushed by a provider.
type Consumer interface {
	HandleRecord(r *record.Record)
}

// Behavior is the node logic an Actor delegates to. A behavior may
// implement any combination of Starter, Producer, Handler and Finalizer;
// one that implements none of them turns its actor into a pure relay.
type Behavior any

// Starter performs one-time setup. It runs before the actor's providers
// are run, or before the first record is handled if one arrives earlier.
type Starter interface {
	Start(a *Actor) error
}

// Producer emits records with a.Emit. It is called once, on the actor's
// first Run, after every provider has run.
type Producer interface {
	Produce(a *Actor) error
}

// Handler acts on a record delivered to the actor. It relays by calling
// a.Emit and swallows by returning without doing so. A returned error is
// logged and the record is dropped; the run continues.
type Handler interface {
	Handle(a *Actor, r *record.Record) error
}

// Finalizer releases resources after the run phase. It is called on
// every actor, reached or not.
type Finalizer interface {
	Finalize(a *Actor) error
}

// Releaser frees resources of an actor that was set up but never
// finalized because the run aborted. Release errors are logged.
type Releaser interface {
	Release(a *Actor) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(a *Actor, r *record.Record) error

// Handle calls f(a, r).
func (f HandlerFunc) Handle(a *Actor, r *record.Record) error {
	return f(a, r)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(a *Actor) error

// Produce calls f(a).
func (f ProducerFunc) Produce(a *Actor) error {
	return f(a)
}

// Relay is the pure relay behavior.
type Relay struct{}
