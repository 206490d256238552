package models

import (
	"testing"
	"time"
)

func createValidConfig() *Config {
	cfg := &Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = "2112"
	cfg.Server.URI = "/metrics"
	cfg.Server.ScrapingInterval = "5m"
	cfg.Server.CacheTTL = "90s"
	cfg.Server.LogName = "test.log"
	cfg.NCM.Token = "bearer-token-abcdef"
	cfg.OpenTelemetry.Enabled = true
	cfg.OpenTelemetry.Endpoint = "localhost:4317"
	cfg.OpenTelemetry.Insecure = true
	cfg.OpenTelemetry.SamplingRate = 0.5
	return cfg
}

func TestNewImmutableConfig_Success(t *testing.T) {
	cfg := createValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	imm, err := NewImmutableConfig(cfg)
	if err != nil {
		t.Fatalf("NewImmutableConfig() error = %v", err)
	}

	if imm.ServerAddress() != "localhost:2112" {
		t.Errorf("ServerAddress() = %s", imm.ServerAddress())
	}
	if imm.MetricsURI() != "/metrics" {
		t.Errorf("MetricsURI() = %s", imm.MetricsURI())
	}
	if imm.ScrapingInterval() != 5*time.Minute {
		t.Errorf("ScrapingInterval() = %v", imm.ScrapingInterval())
	}
	if imm.CacheTTL() != 90*time.Second {
		t.Errorf("CacheTTL() = %v", imm.CacheTTL())
	}
	if imm.LogName() != "test.log" {
		t.Errorf("LogName() = %s", imm.LogName())
	}
	if !imm.OTelEnabled() || imm.OTelEndpoint() != "localhost:4317" || !imm.OTelInsecure() {
		t.Errorf("OTel settings not copied: %+v", imm)
	}
	if imm.OTelSamplingRate() != 0.5 {
		t.Errorf("OTelSamplingRate() = %v", imm.OTelSamplingRate())
	}
}

func TestNewImmutableConfig_InvalidDurations(t *testing.T) {
	cfg := createValidConfig()
	cfg.Server.ScrapingInterval = "invalid"
	if _, err := NewImmutableConfig(cfg); err == nil {
		t.Error("Expected error for invalid scraping interval")
	}

	cfg = createValidConfig()
	cfg.Server.CacheTTL = "forever"
	if _, err := NewImmutableConfig(cfg); err == nil {
		t.Error("Expected error for invalid cache TTL")
	}
}

func TestImmutableConfig_ValuesAreSnapshots(t *testing.T) {
	cfg := createValidConfig()
	imm, err := NewImmutableConfig(cfg)
	if err != nil {
		t.Fatalf("NewImmutableConfig() error = %v", err)
	}

	cfg.Server.Port = "9999"
	cfg.Server.URI = "/changed"
	cfg.OpenTelemetry.Enabled = false

	if imm.ServerAddress() != "localhost:2112" {
		t.Errorf("ServerAddress changed after source mutation: %s", imm.ServerAddress())
	}
	if imm.MetricsURI() != "/metrics" {
		t.Errorf("MetricsURI changed after source mutation: %s", imm.MetricsURI())
	}
	if !imm.OTelEnabled() {
		t.Error("OTelEnabled changed after source mutation")
	}
}
