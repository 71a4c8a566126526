package engine

// Definition is the format-independent description of a workflow, produced
// by the configuration loaders and consumed by Build.
type Definition struct {
	// Name identifies the workflow in logs and run history.
	Name string

	// Source is the document the definition was loaded from.
	Source string

	// Actors are the node declarations, in document order.
	Actors []ActorDefinition

	// Links are provider/consumer pairs wired in both directions.
	Links []LinkDefinition
}

// ActorDefinition declares one node.
type ActorDefinition struct {
	// Type is the registry type identifier.
	Type string

	// Name is unique within the definition.
	Name string

	// Properties are attached to the actor in order.
	Properties []PropertyDefinition

	// Providers are instance names registered with AddProvider.
	Providers []string

	// Consumers are instance names registered with AddConsumer.
	Consumers []string
}

// PropertyDefinition is a textual configuration entry.
type PropertyDefinition struct {
	Name  string
	Value string
}

// LinkDefinition makes To a consumer of From and From a provider of To.
type LinkDefinition struct {
	From string
	To   string
}
