// Package telemetry provides logging, tracing, metrics and run events for
// actorflow.
//
// The package wraps four libraries behind small types:
//
//  1. Logger wraps zerolog and adds run and actor field helpers.
//  2. Tracer wraps the OpenTelemetry SDK (stdout, otlp or no exporter).
//  3. Metrics owns a private Prometheus registry.
//  4. EventPublisher fans lifecycle events out to subscribers.
//
// Telemetry bundles all four:
//
//	cfg := telemetry.DefaultConfig()
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// The workflow engine reports to a Telemetry through engine.WithTelemetry.
// None of the components are required: a disabled Metrics ignores every
// call, a disabled Tracer records spans without exporting them.
package telemetry
