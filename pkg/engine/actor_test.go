package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/actorflow/actorflow/pkg/record"
)

type countingProvider struct{ runs int }

func (c *countingProvider) Run() { c.runs++ }

type collectingConsumer struct{ got []*record.Record }

func (c *collectingConsumer) HandleRecord(r *record.Record) { c.got = append(c.got, r) }

func TestActor_Run_IsIdempotent(t *testing.T) {
	wf := New()
	a := wf.NewActor("a", "relay", nil)
	p1, p2 := &countingProvider{}, &countingProvider{}
	a.AddProvider(p1)
	a.AddProvider(p2)

	for i := 0; i < 5; i++ {
		a.Run()
	}

	if p1.runs != 1 || p2.runs != 1 {
		t.Errorf("Expected each provider to run once, got %d and %d", p1.runs, p2.runs)
	}
	if !a.HasStarted() {
		t.Errorf("Expected actor to be started")
	}
}

func TestActor_Run_ProvidersInRegistrationOrder(t *testing.T) {
	tr := &callTrace{}
	wf := New()
	sink := wf.NewActor("sink", "probe", &probe{tr: tr})
	for _, name := range []string{"p1", "p2", "p3"} {
		sink.AddProvider(wf.NewActor(name, "probe", &probe{tr: tr}))
	}

	sink.Run()

	want := []string{"sink.start", "p1.start", "p1.produce", "p1.produced", "p2.start", "p2.produce", "p2.produced", "p3.start", "p3.produce", "p3.produced", "sink.produce", "sink.produced"}
	if diff := cmp.Diff(want, tr.calls); diff != "" {
		t.Errorf("Unexpected call order (-want +got):\n%s", diff)
	}
}

func TestActor_HandleRecord_RelaysInOrder(t *testing.T) {
	wf := New()
	a := wf.NewActor("relay", "relay", nil)

	var order []string
	for _, name := range []string{"c1", "c2", "c3"} {
		name := name
		a.AddConsumer(wf.NewActor(name, "probe", HandlerFunc(func(*Actor, *record.Record) error {
			order = append(order, name)
			return nil
		})))
	}

	r := record.New(record.NewProperty("ID", "1"))
	a.HandleRecord(r)

	if diff := cmp.Diff([]string{"c1", "c2", "c3"}, order); diff != "" {
		t.Errorf("Unexpected delivery order (-want +got):\n%s", diff)
	}
}

func TestActor_HandleRecord_SameInstanceToEveryConsumer(t *testing.T) {
	wf := New()
	a := wf.NewActor("relay", "relay", nil)
	c1, c2 := &collectingConsumer{}, &collectingConsumer{}
	a.AddConsumer(c1)
	a.AddConsumer(c2)

	r := record.New()
	a.HandleRecord(r)

	if len(c1.got) != 1 || len(c2.got) != 1 || c1.got[0] != r || c2.got[0] != r {
		t.Errorf("Expected both consumers to observe the same record instance")
	}
}

func TestActor_HandleRecord_BeforeStartRunsSetupOnce(t *testing.T) {
	tr := &callTrace{}
	wf := New()
	p := &probe{tr: tr}
	a := wf.NewActor("late", "probe", p)

	a.HandleRecord(record.New(record.NewProperty("ID", "early")))
	if p.starts != 1 {
		t.Fatalf("Expected setup before the first record, got %d starts", p.starts)
	}
	if a.HasStarted() {
		t.Errorf("Expected actor not to be started by a record")
	}

	a.Run()
	a.HandleRecord(record.New(record.NewProperty("ID", "late")))

	if p.starts != 1 {
		t.Errorf("Expected exactly one setup, got %d", p.starts)
	}
	if len(p.handled) != 2 {
		t.Errorf("Expected 2 handled records, got %d", len(p.handled))
	}
}

func TestActor_HandleRecord_ErrorIsLoggedSkip(t *testing.T) {
	var buf bytes.Buffer
	wf := newTestWorkflow(t, &buf)
	tr := &callTrace{}
	filter := wf.NewActor("filter", "probe", &probe{tr: tr, relay: true, failOn: "bad"})
	out := &collectingConsumer{}
	filter.AddConsumer(out)

	filter.HandleRecord(record.New(record.NewProperty("ID", "good")))
	filter.HandleRecord(record.New(record.NewProperty("ID", "bad")))
	filter.HandleRecord(record.New(record.NewProperty("ID", "also-good")))

	if len(out.got) != 2 {
		t.Fatalf("Expected 2 relayed records, got %d", len(out.got))
	}
	if !strings.Contains(buf.String(), "record skipped") || !strings.Contains(buf.String(), "rejected bad") {
		t.Errorf("Expected skip to be logged, got: %s", buf.String())
	}
	if s := wf.Stats(); s.RecordsSkipped != 1 || s.RecordsHandled != 3 {
		t.Errorf("Unexpected stats: %+v", s)
	}
}

func TestActor_HasConsumers(t *testing.T) {
	wf := New()
	a := wf.NewActor("a", "relay", nil)
	if a.HasConsumers() {
		t.Errorf("Expected no consumers on a new actor")
	}
	a.AddConsumer(&collectingConsumer{})
	if !a.HasConsumers() {
		t.Errorf("Expected consumers after AddConsumer")
	}
}

func TestActor_FirstProperty(t *testing.T) {
	wf := New()
	a := wf.NewActor("a", "relay", nil)

	if a.FirstProperty("x") != nil {
		t.Errorf("Expected nil on empty property list")
	}
	if _, ok := a.FirstPropertyValue("x"); ok {
		t.Errorf("Expected absent value on empty property list")
	}

	a.AddProperty(record.NewProperty("x", "first"))
	a.AddProperty(record.NewProperty("y", "other"))
	a.AddProperty(record.NewProperty("x", "second"))

	if v, ok := a.FirstPropertyValue("x"); !ok || v != "first" {
		t.Errorf("Expected first, got %q (found=%v)", v, ok)
	}
	if got := a.PropertyOr("missing", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
	if diff := cmp.Diff(3, len(a.Properties())); diff != "" {
		t.Errorf("Unexpected property count (-want +got):\n%s", diff)
	}
}

func TestActor_TypedProperties(t *testing.T) {
	wf := New()
	a := wf.NewActor("a", "relay", nil)
	a.AddProperty(record.NewProperty("flag", "true"))
	a.AddProperty(record.NewProperty("count", "7"))
	a.AddProperty(record.NewProperty("wait", "2s"))

	if !a.BoolProperty("flag", false) {
		t.Errorf("Expected flag=true")
	}
	if got := a.IntProperty("count", 1); got != 7 {
		t.Errorf("Expected count=7, got %d", got)
	}
	if got := a.IntProperty("absent", 3); got != 3 {
		t.Errorf("Expected default 3, got %d", got)
	}
	if got := a.DurationProperty("wait", 0).Seconds(); got != 2 {
		t.Errorf("Expected 2s, got %vs", got)
	}
}

func TestActor_InvalidPropertyAborts(t *testing.T) {
	var buf bytes.Buffer
	wf := newTestWorkflow(t, &buf)
	a := wf.NewActor("a", "relay", nil)
	a.AddProperty(record.NewProperty("count", "many"))

	err := wf.guard(func() { a.IntProperty("count", 1) })
	if !IsFatal(err) {
		t.Fatalf("Expected fatal error, got: %v", err)
	}
	if ErrorCode(err) != ErrCodeInvalidProperty {
		t.Errorf("Expected code %s, got %s", ErrCodeInvalidProperty, ErrorCode(err))
	}
}
