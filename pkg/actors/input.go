package actors

import (
	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
)

// Input emits count records, each carrying a single ID property.
//
// Properties: id (default FOO), count (default 1).
type Input struct{}

// Produce implements engine.Producer.
func (Input) Produce(a *engine.Actor) error {
	id := a.PropertyOr("id", "FOO")
	count := a.IntProperty("count", 1)
	if count < 0 {
		a.Dief("count must not be negative, got %d", count)
	}

	for i := 0; i < count; i++ {
		a.Emit(record.New(record.NewProperty("ID", id)))
	}
	return nil
}
