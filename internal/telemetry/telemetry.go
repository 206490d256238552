// Package telemetry wires OpenTelemetry tracing for the serve command.
//
// Manager owns the OTLP gRPC exporter and the tracer provider. Every span
// carries a resource describing the NCM deployment: which API generations
// have credentials (ncm.api_versions), both base URLs and peer.service set
// to the host of the generation tried first. The provider is injected into
// the ncm client, where each HTTP request gets a span, and into the fleet
// collector, where each scrape gets one.
//
//	m := telemetry.NewManager(telemetry.Config{
//	    Endpoint:     "localhost:4317",
//	    Insecure:     true,
//	    SamplingRate: 0.1,
//	    APIVersions:  []string{"v2", "v3"},
//	    V2BaseURL:    ncm.DefaultV2BaseURL,
//	    V3BaseURL:    ncm.DefaultV3BaseURL,
//	})
//	if err := m.Initialize(ctx); err != nil {
//	    log.Warnf("tracing disabled: %v", err)
//	}
//	defer m.Shutdown(ctx)
//
// Span attribute keys live in attributes.go. errors.go holds the
// troubleshooting text the CLI prints for credential failures.
package telemetry
