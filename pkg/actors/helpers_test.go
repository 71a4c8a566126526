package actors

import (
	"context"
	"testing"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
)

// collector is a test sink keeping every record it receives.
type collector struct {
	records []*record.Record
}

func (c *collector) Handle(a *engine.Actor, r *record.Record) error {
	c.records = append(c.records, r)
	return nil
}

// runChain wires actors into a linear chain ending in a collector, then
// runs it once.
func runChain(t *testing.T, actors []engine.ActorDefinition, opts ...engine.Option) (*collector, error) {
	t.Helper()

	c := &collector{}
	reg := NewRegistry()
	reg.MustRegister("collect", "test sink", func(*engine.Workflow) (engine.Behavior, error) {
		return c, nil
	})

	def := &engine.Definition{Name: "test"}
	def.Actors = append(def.Actors, actors...)
	def.Actors = append(def.Actors, engine.ActorDefinition{Type: "collect", Name: "collect"})
	for i := 1; i < len(def.Actors); i++ {
		def.Links = append(def.Links, engine.LinkDefinition{From: def.Actors[i-1].Name, To: def.Actors[i].Name})
	}

	wf, err := engine.Build(def, reg, opts...)
	if err != nil {
		t.Fatalf("Expected workflow to build, got: %v", err)
	}
	return c, wf.Run(context.Background())
}

func props(kv ...string) []engine.PropertyDefinition {
	out := make([]engine.PropertyDefinition, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, engine.PropertyDefinition{Name: kv[i], Value: kv[i+1]})
	}
	return out
}

// pairs renders a record as name=value strings in order.
func pairs(r *record.Record) []string {
	out := make([]string, 0, r.Len())
	for _, p := range r.All() {
		out = append(out, p.Name()+"="+p.StringValue())
	}
	return out
}
