package models

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// SafeConfig provides thread-safe access to configuration.
// It uses RWMutex to allow concurrent reads while serializing writes.
// Pattern from Prometheus blackbox_exporter.
//
// SafeConfig enables credential rotation without restarting:
//   - Operators can update keys or the bearer token and send SIGHUP
//   - File watchers trigger automatic reload when config files change
//   - Invalid configurations are rejected without affecting the running config
//
// Usage:
//
//	safeCfg := NewSafeConfig(cfg)
//	current := safeCfg.Get()
//	change, err := safeCfg.ReloadConfig("/path/to/config.yaml")
type SafeConfig struct {
	mu sync.RWMutex
	C  *Config
}

// ReloadResult describes what a reload changed.
type ReloadResult struct {
	APIKeysChanged   bool
	TokenChanged     bool
	BaseURLsChanged  bool
	TransportChanged bool
}

// CredentialsChanged reports whether either credential generation changed.
func (r ReloadResult) CredentialsChanged() bool {
	return r.APIKeysChanged || r.TokenChanged
}

// NeedsRebuild reports whether the client must be rebuilt rather than
// having its credentials rotated in place.
func (r ReloadResult) NeedsRebuild() bool {
	return r.BaseURLsChanged || r.TransportChanged
}

// NewSafeConfig creates a new SafeConfig with the provided initial config.
// The config is stored by reference; the caller should not modify it after
// passing it to NewSafeConfig.
func NewSafeConfig(cfg *Config) *SafeConfig {
	return &SafeConfig{
		C: cfg,
	}
}

// Get returns the current configuration (read-locked).
// The returned pointer is safe to use until the next reload.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.C
}

// ReloadConfig loads and validates a new configuration from the file.
// Validation happens BEFORE acquiring write lock (fail-fast pattern).
// This ensures invalid configurations never affect the running client.
//
// The write lock is held only for the pointer swap.
func (sc *SafeConfig) ReloadConfig(configPath string) (ReloadResult, error) {
	newCfg, err := Load(configPath)
	if err != nil {
		return ReloadResult{}, fmt.Errorf("config reload failed: %w", err)
	}

	sc.mu.Lock()
	old := sc.C
	sc.C = newCfg
	sc.mu.Unlock()

	result := diffConfigs(old, newCfg)

	log.Info("Configuration reloaded successfully")
	if result.CredentialsChanged() {
		log.WithFields(log.Fields{
			"apiKeys": result.APIKeysChanged,
			"token":   result.TokenChanged,
		}).Info("NCM credentials changed")
	}
	if result.NeedsRebuild() {
		log.Info("NCM endpoint or transport settings changed, client will be rebuilt")
	}

	return result, nil
}

func diffConfigs(old, cur *Config) ReloadResult {
	if old == nil {
		return ReloadResult{APIKeysChanged: true, TokenChanged: true}
	}
	return ReloadResult{
		APIKeysChanged:  old.NCM.APIKeys != cur.NCM.APIKeys,
		TokenChanged:    old.NCM.Token != cur.NCM.Token,
		BaseURLsChanged: old.NCM.V2BaseURL != cur.NCM.V2BaseURL || old.NCM.V3BaseURL != cur.NCM.V3BaseURL,
		TransportChanged: !intPtrEqual(old.NCM.Retries, cur.NCM.Retries) ||
			!floatPtrEqual(old.NCM.RetryBackoffFactor, cur.NCM.RetryBackoffFactor) ||
			fmt.Sprint(old.NCM.RetryOn) != fmt.Sprint(cur.NCM.RetryOn) ||
			old.NCM.Timeout != cur.NCM.Timeout ||
			old.NCM.RateLimit != cur.NCM.RateLimit ||
			old.NCM.RateBurst != cur.NCM.RateBurst ||
			old.NCM.BreakerFailures != cur.NCM.BreakerFailures ||
			old.NCM.BreakerTimeout != cur.NCM.BreakerTimeout,
	}
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
