package actors

import (
	"fmt"
	"os"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/script"
)

// Starlark passes each record through a Starlark function and emits
// whatever it returns. The program comes from the script property or the
// file named by script-file.
type Starlark struct {
	transformer *script.Transformer
}

// Start implements engine.Starter.
func (s *Starlark) Start(a *engine.Actor) error {
	filename, src := a.Name()+".star", ""
	if v, ok := a.FirstPropertyValue("script"); ok && v != "" {
		src = v
	} else {
		filename = a.RequireProperty("script-file")
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		src = string(data)
	}

	tr, err := script.Compile(filename, src, a.PropertyOr("function", script.DefaultFunction),
		script.WithTimeout(a.DurationProperty("timeout", script.DefaultTimeout)),
		script.WithLogger(a.Logger()),
	)
	if err != nil {
		return err
	}
	s.transformer = tr
	return nil
}

// Handle implements engine.Handler.
func (s *Starlark) Handle(a *engine.Actor, r *record.Record) error {
	out, err := s.transformer.Transform(a.Context(), r)
	if err != nil {
		return err
	}
	for _, rec := range out {
		a.Emit(rec)
	}
	return nil
}
