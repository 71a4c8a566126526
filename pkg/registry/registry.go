// Package registry maps actor type identifiers to the factories that
// construct them.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/actorflow/actorflow/pkg/engine"
)

// Entry is a registered actor type.
type Entry struct {
	// Type is the identifier used in workflow documents.
	Type string

	// Description is a one-line summary shown by the CLI.
	Description string

	// Factory constructs the actor behavior.
	Factory engine.Factory
}

// Registry implements engine.ActorRegistry. It is populated explicitly;
// nothing registers itself on import.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	aliases map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		aliases: make(map[string]string),
	}
}

// Register adds a type. Registering the same identifier twice is an error.
func (r *Registry) Register(typeName, description string, factory engine.Factory) error {
	if strings.TrimSpace(typeName) == "" {
		return fmt.Errorf("type identifier is required")
	}
	if factory == nil {
		return fmt.Errorf("factory for %s is nil", typeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[typeName]; exists {
		return fmt.Errorf("actor type %s already registered", typeName)
	}
	if _, exists := r.aliases[typeName]; exists {
		return fmt.Errorf("actor type %s already registered as an alias", typeName)
	}

	r.entries[typeName] = Entry{Type: typeName, Description: description, Factory: factory}
	return nil
}

// MustRegister is Register that panics on error. It is meant for static
// registration tables.
func (r *Registry) MustRegister(typeName, description string, factory engine.Factory) {
	if err := r.Register(typeName, description, factory); err != nil {
		panic(err)
	}
}

// Alias makes alias resolve to an already registered type.
func (r *Registry) Alias(alias, typeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[typeName]; !exists {
		return fmt.Errorf("actor type %s not found", typeName)
	}
	if _, exists := r.entries[alias]; exists {
		return fmt.Errorf("alias %s collides with a registered type", alias)
	}
	if _, exists := r.aliases[alias]; exists {
		return fmt.Errorf("alias %s already registered", alias)
	}

	r.aliases[alias] = typeName
	return nil
}

// Lookup returns the factory for typeName or one of its aliases.
func (r *Registry) Lookup(typeName string) (engine.Factory, error) {
	e, err := r.Get(typeName)
	if err != nil {
		return nil, err
	}
	return e.Factory, nil
}

// Get returns the entry for typeName or one of its aliases.
func (r *Registry) Get(typeName string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.aliases[typeName]; ok {
		typeName = target
	}
	e, ok := r.entries[typeName]
	if !ok {
		return Entry{}, fmt.Errorf("actor type %s not found", typeName)
	}
	return e, nil
}

// Unregister removes a type and its aliases.
func (r *Registry) Unregister(typeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[typeName]; !exists {
		return fmt.Errorf("actor type %s not found", typeName)
	}
	delete(r.entries, typeName)
	for alias, target := range r.aliases {
		if target == typeName {
			delete(r.aliases, alias)
		}
	}
	return nil
}

// List returns every entry sorted by type identifier.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Aliases returns alias -> type identifier.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}
