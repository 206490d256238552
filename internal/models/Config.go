// Package models defines the configuration of the ncm_client binary and the
// typed views it builds over NetCloud Manager records.
package models

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fjacquet/ncm_client/internal/utils"
	"github.com/fjacquet/ncm_client/pkg/ncm"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
)

// Default values applied by SetDefaults.
const (
	DefaultServerHost       = "0.0.0.0"
	DefaultServerPort       = "2112"
	DefaultMetricsURI       = "/metrics"
	DefaultScrapingInterval = "1m"
	DefaultCacheTTL         = "5m"
	DefaultLogName          = "ncm_client.log"
	DefaultRequestTimeout   = "30s"
	DefaultBreakerTimeout   = "1m"
)

// Environment variables that override credentials from the file.
const (
	EnvCPAPIID   = "X_CP_API_ID"
	EnvCPAPIKey  = "X_CP_API_KEY"
	EnvECMAPIID  = "X_ECM_API_ID"
	EnvECMAPIKey = "X_ECM_API_KEY"
	EnvToken     = "NCM_API_TOKEN"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ServerConfig holds the settings of the fleet exporter HTTP server.
type ServerConfig struct {
	Port             string `yaml:"port" validate:"required,numeric"`
	Host             string `yaml:"host" validate:"required"`
	URI              string `yaml:"uri" validate:"required,startswith=/"`
	ScrapingInterval string `yaml:"scrapingInterval"`
	CacheTTL         string `yaml:"cacheTTL"`
	LogName          string `yaml:"logName"`
}

// NCMConfig holds the credentials and transport tuning of the NCM client.
type NCMConfig struct {
	ncm.Credentials `yaml:",inline"`

	V2BaseURL          string   `yaml:"v2BaseUrl" validate:"omitempty,url"`
	V3BaseURL          string   `yaml:"v3BaseUrl" validate:"omitempty,url"`
	Retries            *int     `yaml:"retries" validate:"omitempty,min=0,max=20"`
	RetryBackoffFactor *float64 `yaml:"retryBackoffFactor" validate:"omitempty,gte=0"`
	RetryOn            []int    `yaml:"retryOn" validate:"dive,min=100,max=599"`
	Timeout            string   `yaml:"timeout"`
	RateLimit          float64  `yaml:"rateLimit" validate:"gte=0"`
	RateBurst          int      `yaml:"rateBurst" validate:"gte=0"`
	BreakerFailures    uint32   `yaml:"breakerFailures"`
	BreakerTimeout     string   `yaml:"breakerTimeout"`
	LogEvents          *bool    `yaml:"logEvents"`
}

// OTelConfig holds the OpenTelemetry exporter settings.
type OTelConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Endpoint     string  `yaml:"endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SamplingRate float64 `yaml:"samplingRate" validate:"gte=0,lte=1"`
}

// Config represents the complete application configuration.
type Config struct {
	Server        ServerConfig `yaml:"server"`
	NCM           NCMConfig    `yaml:"ncm"`
	OpenTelemetry OTelConfig   `yaml:"opentelemetry"`
}

// Load reads path, applies environment overrides from the process
// environment and validates the result.
func Load(path string) (*Config, error) {
	if !utils.FileExists(path) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if err := utils.ReadFile(&cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overrides credentials with the values lookup finds.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvCPAPIID, &c.NCM.CPAPIID},
		{EnvCPAPIKey, &c.NCM.CPAPIKey},
		{EnvECMAPIID, &c.NCM.ECMAPIID},
		{EnvECMAPIKey, &c.NCM.ECMAPIKey},
		{EnvToken, &c.NCM.Token},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.env); ok && v != "" {
			*o.target = v
		}
	}
}

// SetDefaults fills optional fields left empty in the file.
// This method is called automatically by Validate() before validation checks.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == "" {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.URI == "" {
		c.Server.URI = DefaultMetricsURI
	}
	if c.Server.ScrapingInterval == "" {
		c.Server.ScrapingInterval = DefaultScrapingInterval
	}
	if c.Server.CacheTTL == "" {
		c.Server.CacheTTL = DefaultCacheTTL
	}
	if c.Server.LogName == "" {
		c.Server.LogName = DefaultLogName
	}

	if c.NCM.Timeout == "" {
		c.NCM.Timeout = DefaultRequestTimeout
	}
	if c.NCM.BreakerFailures > 0 && c.NCM.BreakerTimeout == "" {
		c.NCM.BreakerTimeout = DefaultBreakerTimeout
	}

	if c.OpenTelemetry.Enabled && c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = 1.0
	}
}

// Validate checks if the configuration is valid and returns an error if not.
// Struct tags are checked first, then the rules tags cannot express:
//   - port range (1-65535)
//   - durations parse
//   - an OTLP endpoint is set when tracing is enabled
//
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	c.SetDefaults()

	if err := structValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q check", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag())
		}
		return err
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	durations := map[string]string{
		"scraping interval": c.Server.ScrapingInterval,
		"cache TTL":         c.Server.CacheTTL,
		"NCM timeout":       c.NCM.Timeout,
	}
	if c.NCM.BreakerTimeout != "" {
		durations["circuit breaker timeout"] = c.NCM.BreakerTimeout
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.OpenTelemetry.Enabled && c.OpenTelemetry.Endpoint == "" {
		return errors.New("OpenTelemetry endpoint is required when tracing is enabled")
	}

	return nil
}

// GetServerAddress returns the complete server address for HTTP server binding.
// Format: host:port
//
// Example: "0.0.0.0:2112"
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetScrapingDuration parses and returns the scraping interval as a time.Duration.
func (c *Config) GetScrapingDuration() (time.Duration, error) {
	return time.ParseDuration(c.Server.ScrapingInterval)
}

// GetCacheTTL parses and returns the router snapshot TTL.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Server.CacheTTL)
}

// IsOTelEnabled reports whether tracing is switched on.
func (c *Config) IsOTelEnabled() bool {
	return c.OpenTelemetry.Enabled
}

// Credentials returns the configured credential bundle.
func (c *Config) Credentials() ncm.Credentials {
	return c.NCM.Credentials
}

// HasCredentials reports whether any v2 key or the v3 token is configured.
func (c *Config) HasCredentials() bool {
	return c.NCM.APIKeys.Any() || c.NCM.Token != ""
}

// MaskAPIKey returns a masked version of a secret for safe logging.
// Shows the first 4 and last 4 characters with asterisks in between.
//
// Example: "abcd1234efgh5678" -> "abcd****5678"
//
// For keys of 8 characters or less, returns "****".
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// MaskedCredentials returns every configured secret masked, keyed by the
// name NCM uses for it. Unset secrets are omitted.
func (c *Config) MaskedCredentials() map[string]string {
	out := map[string]string{}
	for name, value := range map[string]string{
		ncm.HeaderCPAPIID:   c.NCM.CPAPIID,
		ncm.HeaderCPAPIKey:  c.NCM.CPAPIKey,
		ncm.HeaderECMAPIID:  c.NCM.ECMAPIID,
		ncm.HeaderECMAPIKey: c.NCM.ECMAPIKey,
		ncm.TokenKey:        c.NCM.Token,
	} {
		if value != "" {
			out[name] = MaskAPIKey(value)
		}
	}
	return out
}

// ClientOptions translates the ncm section into client options. The
// config must have been validated. extra options are appended last and
// win over the file.
func (c *Config) ClientOptions(tp trace.TracerProvider, extra ...ncm.Option) []ncm.Option {
	var opts []ncm.Option
	if c.NCM.V2BaseURL != "" {
		opts = append(opts, ncm.WithV2BaseURL(c.NCM.V2BaseURL))
	}
	if c.NCM.V3BaseURL != "" {
		opts = append(opts, ncm.WithV3BaseURL(c.NCM.V3BaseURL))
	}
	if c.NCM.Retries != nil {
		opts = append(opts, ncm.WithRetries(*c.NCM.Retries))
	}
	if c.NCM.RetryBackoffFactor != nil {
		opts = append(opts, ncm.WithRetryBackoffFactor(*c.NCM.RetryBackoffFactor))
	}
	if len(c.NCM.RetryOn) > 0 {
		opts = append(opts, ncm.WithRetryOn(c.NCM.RetryOn...))
	}
	if d, err := time.ParseDuration(c.NCM.Timeout); err == nil {
		opts = append(opts, ncm.WithTimeout(d))
	}
	if c.NCM.RateLimit > 0 {
		opts = append(opts, ncm.WithRateLimit(c.NCM.RateLimit, c.NCM.RateBurst))
	}
	if c.NCM.BreakerFailures > 0 {
		d, _ := time.ParseDuration(c.NCM.BreakerTimeout)
		opts = append(opts, ncm.WithCircuitBreaker(c.NCM.BreakerFailures, d))
	}
	if c.NCM.LogEvents != nil {
		opts = append(opts, ncm.WithLogEvents(*c.NCM.LogEvents))
	}
	if tp != nil {
		opts = append(opts, ncm.WithTracerProvider(tp))
	}
	return append(opts, extra...)
}
