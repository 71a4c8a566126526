package actors

import (
	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/policy"
	"github.com/actorflow/actorflow/pkg/record"
)

// RegoFilter relays the records a Rego query accepts and drops the rest.
// Policies come from the policy property (inline source) or policy-file,
// which may name a file or a directory of .rego files.
type RegoFilter struct {
	filter *policy.Filter
}

// Start implements engine.Starter.
func (f *RegoFilter) Start(a *engine.Actor) error {
	var modules []policy.Module
	if src, ok := a.FirstPropertyValue("policy"); ok && src != "" {
		m, err := policy.ParseModule(a.Name()+".rego", src)
		if err != nil {
			return err
		}
		modules = append(modules, m)
	} else {
		loaded, err := policy.NewLoader(*a.Logger().Zerolog()).LoadFromPaths(a.RequireProperty("policy-file"))
		if err != nil {
			return err
		}
		modules = loaded
	}

	filter, err := policy.NewFilter(a.Context(), modules, a.PropertyOr("query", ""), *a.Logger().Zerolog())
	if err != nil {
		return err
	}
	f.filter = filter
	a.Logger().WithField("query", filter.Query()).Debug("policy filter ready")
	return nil
}

// Handle implements engine.Handler.
func (f *RegoFilter) Handle(a *engine.Actor, r *record.Record) error {
	allowed, err := f.filter.Allow(a.Context(), r)
	if err != nil {
		return err
	}
	if allowed {
		a.Emit(r)
	}
	return nil
}
