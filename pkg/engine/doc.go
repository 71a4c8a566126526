// Package engine builds and drives actorflow workflows.
//
// # Model
//
// A Workflow owns a set of actors. Every Actor is both a Provider (it can
// be asked to Run) and a Consumer (it can be handed a record through
// HandleRecord). Edges are plain lists on each actor: providers are run
// when the actor first runs, consumers receive every record the actor
// emits. The two lists are independent, so a configuration normally
// declares both sides of an edge, or uses a link.
//
// What an actor does is supplied by its Behavior, which may implement:
//
//   - Starter: one-time setup
//   - Producer: emit records once upstream providers have run
//   - Handler: act on each delivered record and decide whether to relay it
//   - Finalizer: release resources after the run
//   - Releaser: free resources when an aborted run skips Finalize
//
// # Driving
//
// Workflow.Run runs every sink (an actor without consumers) in
// registration order. A sink's Run recursively runs its providers first;
// a provider reached from several sinks runs once. Records travel
// synchronously: a producer's Emit returns only after every downstream
// actor has handled the record. After the sinks, every actor is finalized.
//
// # Errors
//
// A Handler error is a logged skip: the record is dropped and the run
// continues. Die is fatal: it logs once at error level, cancels the run
// context and unwinds to Run, which returns an *EngineError of class
// ErrorClassFatal. No further actors are run or finalized; actors that
// were already set up are released instead.
//
// Build turns a Definition into a Workflow using an ActorRegistry. Every
// type is resolved before any actor is constructed; unknown types,
// duplicate names and undeclared references are configuration errors, and
// cycles are graph errors.
package engine
