// Package telemetry wires OpenTelemetry tracing and metrics for coachd.
//
// Every pipeline stage, extractor call and coaching branch opens a span from a
// tracer obtained here. When telemetry is disabled the package hands out the
// global no-op providers, so instrumented code never branches on it.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx, span := tel.Tracer("coachd.analysis").Start(ctx, "analysis.visual")
//	defer span.End()
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc          # or http/protobuf
//	  service_name: "coachd"
//	  sample_rate: 1.0
//
// Exporter failures never abort a session; the instance is marked degraded and
// falls back to no-op providers.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "analysis.visual")
//	span.End()
//	tt.AssertSpanExists(t, "analysis.visual")
package telemetry
