package actors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
)

// Print logs every record it receives, then relays it. With a fields
// property (comma separated) only the listed properties are logged.
type Print struct {
	fields map[string]bool
}

// Start implements engine.Starter.
func (p *Print) Start(a *engine.Actor) error {
	v, ok := a.FirstPropertyValue("fields")
	if !ok {
		return nil
	}

	p.fields = make(map[string]bool)
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			p.fields[name] = true
		}
	}

	names := make([]string, 0, len(p.fields))
	for name := range p.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	a.Log(fmt.Sprintf("printable fields: %s", strings.Join(names, ", ")))
	return nil
}

// Handle implements engine.Handler.
func (p *Print) Handle(a *engine.Actor, r *record.Record) error {
	a.Log("Record:")
	for _, prop := range r.All() {
		if p.fields == nil || p.fields[prop.Name()] {
			a.Log(fmt.Sprintf("    [%s=%s]", prop.Name(), prop.StringValue()))
		}
	}
	a.Emit(r)
	return nil
}
