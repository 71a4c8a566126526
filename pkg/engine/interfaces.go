package engine

// Factory constructs the behavior of a node. It receives the owning
// workflow, whose logger and Die a factory may use.
type Factory func(wf *Workflow) (Behavior, error)

// ActorRegistry resolves type identifiers to factories.
type ActorRegistry interface {
	// Lookup returns the factory registered under typeName.
	Lookup(typeName string) (Factory, error)
}
