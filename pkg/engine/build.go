package engine

import (
	"fmt"

	"github.com/actorflow/actorflow/pkg/record"
)

// Build turns a definition into a workflow ready for Run.
//
// Every type is resolved and every name checked before any factory is
// called, so an unknown type never leaves a partially built graph. Actors
// are then constructed and configured in declaration order, edges are
// resolved by instance name, and the finished graph is checked for cycles.
func Build(def *Definition, reg ActorRegistry, opts ...Option) (*Workflow, error) {
	if def == nil {
		return nil, NewConfigurationError("workflow definition is nil", nil).WithCode(ErrCodeValidation)
	}

	factories, err := resolveTypes(def, reg)
	if err != nil {
		return nil, err
	}

	base := make([]Option, 0, 2+len(opts))
	if def.Name != "" {
		base = append(base, WithName(def.Name))
	}
	if def.Source != "" {
		base = append(base, WithSource(def.Source))
	}
	wf := New(append(base, opts...)...)

	actors := make(map[string]*Actor, len(def.Actors))
	ordered := make([]*Actor, 0, len(def.Actors))

	var constructErr error
	abortErr := wf.guard(func() {
		for i, ad := range def.Actors {
			b, err := factories[i](wf)
			if err != nil {
				constructErr = NewConfigurationError(fmt.Sprintf("failed to construct actor of type %q", ad.Type), err).
					WithCode(ErrCodeConstructionFailed).
					WithActor(ad.Name)
				return
			}

			a := wf.NewActor(ad.Name, ad.Type, b)
			for _, p := range ad.Properties {
				a.AddProperty(record.NewProperty(p.Name, p.Value))
			}
			actors[ad.Name] = a
			ordered = append(ordered, a)
		}
	})
	if abortErr != nil {
		return nil, NewConfigurationError("actor construction aborted", abortErr).
			WithCode(ErrCodeConstructionFailed)
	}
	if constructErr != nil {
		return nil, constructErr
	}

	for _, ad := range def.Actors {
		a := actors[ad.Name]
		for _, name := range ad.Providers {
			p, ok := actors[name]
			if !ok {
				return nil, unknownReference(ad.Name, "provider", name)
			}
			a.AddProvider(p)
		}
		for _, name := range ad.Consumers {
			c, ok := actors[name]
			if !ok {
				return nil, unknownReference(ad.Name, "consumer", name)
			}
			a.AddConsumer(c)
		}
	}

	for _, l := range def.Links {
		from, ok := actors[l.From]
		if !ok {
			return nil, unknownReference(l.To, "link source", l.From)
		}
		to, ok := actors[l.To]
		if !ok {
			return nil, unknownReference(l.From, "link target", l.To)
		}
		from.AddConsumer(to)
		to.AddProvider(from)
	}

	for _, a := range ordered {
		wf.AddActor(a)
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}

	wf.logger.Debugf("built workflow with %d actors and %d sinks", len(ordered), len(wf.Sinks()))
	return wf, nil
}

func resolveTypes(def *Definition, reg ActorRegistry) ([]Factory, error) {
	factories := make([]Factory, len(def.Actors))
	seen := make(map[string]bool, len(def.Actors))

	for i, ad := range def.Actors {
		if ad.Name == "" {
			return nil, NewConfigurationError(fmt.Sprintf("actor #%d has no name", i+1), nil).
				WithCode(ErrCodeValidation)
		}
		if seen[ad.Name] {
			return nil, NewConfigurationError(fmt.Sprintf("duplicate actor name %q", ad.Name), nil).
				WithCode(ErrCodeDuplicateActor).
				WithActor(ad.Name)
		}
		seen[ad.Name] = true

		if ad.Type == "" {
			return nil, NewConfigurationError("actor has no type", nil).
				WithCode(ErrCodeValidation).
				WithActor(ad.Name)
		}

		f, err := reg.Lookup(ad.Type)
		if err != nil {
			return nil, NewConfigurationError(fmt.Sprintf("unknown actor type %q", ad.Type), err).
				WithCode(ErrCodeUnknownType).
				WithActor(ad.Name).
				WithDetail("type", ad.Type)
		}
		factories[i] = f
	}

	return factories, nil
}

func unknownReference(actor, role, name string) *EngineError {
	return NewConfigurationError(fmt.Sprintf("%s %q is not declared", role, name), nil).
		WithCode(ErrCodeUnknownReference).
		WithActor(actor).
		WithDetail("reference", name)
}
