package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"
)

// ServiceName is the service.name of every exported span.
const ServiceName = "ncm-client"

// Config describes the OTLP export and the NCM deployment the process
// talks to. The NCM fields end up as resource attributes so traces from
// different tenants or regional endpoints can be told apart.
type Config struct {
	Endpoint       string
	Insecure       bool
	SamplingRate   float64
	ServiceVersion string

	// APIVersions lists the generations with credentials, "v2" and/or "v3".
	APIVersions []string
	V2BaseURL   string
	V3BaseURL   string
}

// Manager owns the tracer provider of the serve command.
type Manager struct {
	cfg Config
	tp  *sdktrace.TracerProvider
}

// NewManager returns a manager that exports nothing until Initialize
// succeeds.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Initialize creates the OTLP gRPC exporter and installs the global tracer
// provider. On error tracing stays off and the caller carries on.
func (m *Manager) Initialize(ctx context.Context) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(m.cfg.Endpoint)}
	if m.cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP exporter for %s: %w", m.cfg.Endpoint, err)
	}
	return m.start(exporter)
}

func (m *Manager) start(exporter sdktrace.SpanExporter) error {
	res, err := Resource(m.cfg)
	if err != nil {
		return fmt.Errorf("failed to build telemetry resource: %w", err)
	}
	m.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(m.cfg.SamplingRate)),
	)
	otel.SetTracerProvider(m.tp)

	logrus.WithFields(logrus.Fields{
		"endpoint":     m.cfg.Endpoint,
		"sampling":     m.cfg.SamplingRate,
		"api_versions": m.cfg.APIVersions,
	}).Info("OpenTelemetry tracing enabled")
	return nil
}

// Resource builds the resource shared by every span: service identity,
// host, the configured NCM generations and their base URLs. peer.service
// is the host of the generation tried first (v3 when configured).
func Resource(cfg Config) (*resource.Resource, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		semconv.HostNameKey.String(hostname),
	}
	if len(cfg.APIVersions) > 0 {
		attrs = append(attrs, attribute.StringSlice(AttrNCMAPIVersions, cfg.APIVersions))
	}
	if cfg.V2BaseURL != "" {
		attrs = append(attrs, attribute.String(AttrNCMV2BaseURL, cfg.V2BaseURL))
	}
	if cfg.V3BaseURL != "" {
		attrs = append(attrs, attribute.String(AttrNCMV3BaseURL, cfg.V3BaseURL))
	}
	if peer := peerHost(cfg); peer != "" {
		attrs = append(attrs, semconv.PeerServiceKey.String(peer))
	}
	return resource.New(context.Background(), resource.WithAttributes(attrs...))
}

func peerHost(cfg Config) string {
	primary := cfg.V2BaseURL
	for _, v := range cfg.APIVersions {
		if v == "v3" && cfg.V3BaseURL != "" {
			primary = cfg.V3BaseURL
		}
	}
	u, err := url.Parse(primary)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Sampler samples everything at rate 1 and a trace id ratio below it.
// Sampled parents propagated by NCM callers are always honoured.
func Sampler(rate float64) sdktrace.Sampler {
	root := sdktrace.AlwaysSample()
	if rate < 1.0 {
		root = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(root)
}

// Shutdown flushes pending spans. It is a no-op when tracing never
// started.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.tp == nil {
		return nil
	}
	if err := m.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown TracerProvider: %w", err)
	}
	logrus.Info("OpenTelemetry shutdown completed")
	return nil
}

// IsEnabled reports whether spans are being exported.
func (m *Manager) IsEnabled() bool {
	return m.tp != nil
}

// TracerProvider returns the provider to inject into the NCM client and
// the fleet collector, or nil when tracing is off.
func (m *Manager) TracerProvider() trace.TracerProvider {
	if m.tp == nil {
		return nil
	}
	return m.tp
}
