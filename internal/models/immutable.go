package models

import (
	"time"
)

// ImmutableConfig holds the exporter settings that are fixed once the
// server starts. Credentials are not part of it; they rotate through
// SafeConfig reloads.
type ImmutableConfig struct {
	serverAddress    string
	metricsURI       string
	scrapingInterval time.Duration
	cacheTTL         time.Duration
	logName          string

	otelEnabled      bool
	otelEndpoint     string
	otelInsecure     bool
	otelSamplingRate float64
}

// NewImmutableConfig creates an ImmutableConfig from a validated Config.
// Returns an error if a duration cannot be parsed.
func NewImmutableConfig(cfg *Config) (ImmutableConfig, error) {
	scrapingDuration, err := cfg.GetScrapingDuration()
	if err != nil {
		return ImmutableConfig{}, err
	}
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return ImmutableConfig{}, err
	}

	return ImmutableConfig{
		serverAddress:    cfg.GetServerAddress(),
		metricsURI:       cfg.Server.URI,
		scrapingInterval: scrapingDuration,
		cacheTTL:         ttl,
		logName:          cfg.Server.LogName,

		otelEnabled:      cfg.OpenTelemetry.Enabled,
		otelEndpoint:     cfg.OpenTelemetry.Endpoint,
		otelInsecure:     cfg.OpenTelemetry.Insecure,
		otelSamplingRate: cfg.OpenTelemetry.SamplingRate,
	}, nil
}

// ServerAddress returns the HTTP server bind address (host:port).
func (c ImmutableConfig) ServerAddress() string {
	return c.serverAddress
}

// MetricsURI returns the metrics endpoint URI path.
func (c ImmutableConfig) MetricsURI() string {
	return c.metricsURI
}

// ScrapingInterval returns how often the fleet snapshot is refreshed in
// the background.
func (c ImmutableConfig) ScrapingInterval() time.Duration {
	return c.scrapingInterval
}

// CacheTTL returns how long a fleet snapshot is served before refetching.
func (c ImmutableConfig) CacheTTL() time.Duration {
	return c.cacheTTL
}

// LogName returns the log file name.
func (c ImmutableConfig) LogName() string {
	return c.logName
}

// OTelEnabled returns whether OpenTelemetry is enabled.
func (c ImmutableConfig) OTelEnabled() bool {
	return c.otelEnabled
}

// OTelEndpoint returns the OTLP endpoint address.
func (c ImmutableConfig) OTelEndpoint() string {
	return c.otelEndpoint
}

// OTelInsecure returns whether OTLP uses insecure connection.
func (c ImmutableConfig) OTelInsecure() bool {
	return c.otelInsecure
}

// OTelSamplingRate returns the trace sampling rate.
func (c ImmutableConfig) OTelSamplingRate() float64 {
	return c.otelSamplingRate
}
