package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/telemetry"
)

// mapRegistry resolves types from a plain map.
type mapRegistry map[string]Factory

func (m mapRegistry) Lookup(typeName string) (Factory, error) {
	f, ok := m[typeName]
	if !ok {
		return nil, fmt.Errorf("type %q is not registered", typeName)
	}
	return f, nil
}

// callTrace collects lifecycle calls across actors in order.
type callTrace struct {
	calls []string
}

func (tr *callTrace) add(format string, args ...any) {
	tr.calls = append(tr.calls, fmt.Sprintf(format, args...))
}

// probe is a behavior that records every lifecycle callback. It emits
// one record per entry in emit, relays when relay is set.
type probe struct {
	tr       *callTrace
	emit     []string
	relay    bool
	starts   int
	produced int
	handled  []*record.Record
	finals   int
	failOn   string
}

func (p *probe) Start(a *Actor) error {
	p.starts++
	p.tr.add("%s.start", a.Name())
	return nil
}

func (p *probe) Produce(a *Actor) error {
	p.produced++
	p.tr.add("%s.produce", a.Name())
	for _, v := range p.emit {
		a.Emit(record.New(record.NewProperty("ID", v)))
	}
	p.tr.add("%s.produced", a.Name())
	return nil
}

func (p *probe) Handle(a *Actor, r *record.Record) error {
	v, _ := r.FirstValue("ID")
	p.tr.add("%s.handle(%v)", a.Name(), v)
	if p.failOn != "" && v == p.failOn {
		return errors.New("rejected " + p.failOn)
	}
	p.handled = append(p.handled, r)
	if p.relay {
		a.Emit(r)
	}
	return nil
}

func (p *probe) Finalize(a *Actor) error {
	p.finals++
	p.tr.add("%s.finalize", a.Name())
	return nil
}

// newProbe returns a factory that hands out the given probe.
func newProbe(p *probe) Factory {
	return func(*Workflow) (Behavior, error) { return p, nil }
}

// link wires from -> to in both directions.
func link(from, to *Actor) {
	from.AddConsumer(to)
	to.AddProvider(from)
}

// newTestWorkflow returns a workflow logging JSON into buf.
func newTestWorkflow(t *testing.T, buf *bytes.Buffer, opts ...Option) *Workflow {
	t.Helper()
	logger := telemetry.NewLoggerWithWriter(buf, telemetry.LoggingConfig{Level: "debug", Format: "json"})
	return New(append([]Option{WithName("test"), WithLogger(logger)}, opts...)...)
}

func runWorkflow(t *testing.T, wf *Workflow) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return wf.Run(ctx)
}
