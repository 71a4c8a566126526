// Package actors holds the built-in actor behaviors and registers them
// under their workflow type identifiers.
//
// Every behavior reads its configuration from the actor's properties when
// the actor is set up. A missing or malformed required property aborts
// the run.
package actors
