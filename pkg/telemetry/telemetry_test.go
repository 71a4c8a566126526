package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LoggingConfig{Level: "debug", Format: "json"})

	logger.WithRun("run-1", "demo").WithActor("reader", "csv-input").Error("boom")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got: %v (%s)", err, buf.String())
	}

	for key, want := range map[string]string{
		"level":      "error",
		"message":    "boom",
		"run_id":     "run-1",
		"workflow":   "demo",
		"actor":      "reader",
		"actor_type": "csv-input",
	} {
		if entry[key] != want {
			t.Errorf("Expected %s=%q, got %v", key, want, entry[key])
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LoggingConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Expected info message to be filtered, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn message to be logged, got: %s", buf.String())
	}
}

func TestLogger_ContextRoundTrip(t *testing.T) {
	logger := NewNopLogger()
	ctx := logger.WithContext(context.Background())

	if FromContext(ctx) != logger {
		t.Errorf("Expected logger from context to be the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Errorf("Expected fallback logger")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad exporter", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "zipkin" }, true},
		{"otlp without endpoint", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "otlp" }, true},
		{"bad sampling", func(c *Config) { c.Tracing.SamplingRate = 2 }, true},
		{"async zero buffer", func(c *Config) { c.Events.EnableAsync = true; c.Events.BufferSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetrics_Counters(t *testing.T) {
	m, err := NewMetrics(DefaultConfig().Metrics)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	m.RecordRunStarted("demo")
	m.RecordRecordHandled("sink", "print")
	m.RecordRecordHandled("sink", "print")
	m.RecordRecordSkipped("sink", "print")
	m.RecordRunCompleted("demo", "success", time.Second)

	if got := testutil.ToFloat64(m.recordsHandled.WithLabelValues("sink", "print")); got != 2 {
		t.Errorf("Expected 2 handled records, got %v", got)
	}
	if got := testutil.ToFloat64(m.recordsSkipped.WithLabelValues("sink", "print")); got != 1 {
		t.Errorf("Expected 1 skipped record, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeRuns); got != 0 {
		t.Errorf("Expected 0 active runs, got %v", got)
	}
}

func TestMetrics_DisabledIsNoop(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	m.RecordRunStarted("demo")
	m.RecordError("fatal")

	if m.Registry() != nil {
		t.Errorf("Expected nil registry when disabled")
	}
}

func TestTracer_RunSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer := NewTracerWithExporter(exporter, "test")

	ctx, span := tracer.StartRunSpan(context.Background(), "run-1", "demo")
	AddActorEvent(span, "actor.started", "reader", "input")
	RecordSuccess(span)
	span.End()

	if TraceID(ctx) == "" {
		t.Errorf("Expected a trace ID in context")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "workflow.run" {
		t.Errorf("Expected span name workflow.run, got %s", spans[0].Name)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("Expected 1 span event, got %d", len(spans[0].Events))
	}
}

func TestEventPublisher_SyncDeliveryOrder(t *testing.T) {
	ep := NewEventPublisher(EventsConfig{Enabled: true})

	var got []string
	ep.Subscribe(func(e Event) { got = append(got, e.Type) }, nil)

	var errorsOnly []string
	ep.Subscribe(func(e Event) { errorsOnly = append(errorsOnly, e.Type) }, FilterByLevel(EventLevelError))

	_ = ep.Publish(Event{Type: EventTypeRunStarted})
	_ = ep.Publish(Event{Type: EventTypeActorStarted})
	_ = ep.Publish(Event{Type: EventTypeRunFailed, Level: EventLevelError})

	want := []string{EventTypeRunStarted, EventTypeActorStarted, EventTypeRunFailed}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected events (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{EventTypeRunFailed}, errorsOnly); diff != "" {
		t.Errorf("Unexpected filtered events (-want +got):\n%s", diff)
	}
}

func TestEventPublisher_AsyncDrainsOnShutdown(t *testing.T) {
	ep := NewEventPublisher(EventsConfig{Enabled: true, EnableAsync: true, BufferSize: 16})

	received := make(chan Event, 16)
	ep.Subscribe(func(e Event) { received <- e }, FilterByRunID("run-1"))

	_ = ep.Publish(Event{Type: EventTypeRunStarted, RunID: "run-1"})
	_ = ep.Publish(Event{Type: EventTypeRunStarted, RunID: "run-2"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ep.Shutdown(ctx); err != nil {
		t.Fatalf("Expected clean shutdown, got: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("Expected 1 delivered event, got %d", len(received))
	}
	e := <-received
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("Expected ID and timestamp to be stamped, got %+v", e)
	}
}
