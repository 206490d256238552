package models

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

const reloadBaseConfig = `server:
  host: "localhost"
  port: "2112"
ncm:
  cpApiId: "cp-id"
  cpApiKey: "cp-key"
  ecmApiId: "ecm-id"
  ecmApiKey: "ecm-key"
  token: "token-one"
`

func writeReloadConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func loadedConfig(t *testing.T, path string) *Config {
	t.Helper()
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestNewSafeConfig(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = "2112"

	sc := NewSafeConfig(cfg)

	if sc == nil {
		t.Fatal("NewSafeConfig returned nil")
	}
	if sc.C != cfg {
		t.Error("SafeConfig.C does not point to the original config")
	}
	if sc.Get().Server.Host != "localhost" {
		t.Errorf("Expected Server.Host=localhost, got %s", sc.Get().Server.Host)
	}
}

func TestSafeConfigConcurrentAccess(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Host = "localhost"
	cfg.NCM.Token = "token"
	sc := NewSafeConfig(cfg)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := sc.Get()
			_ = got.Server.Host
			_ = got.NCM.Token
		}()
	}
	wg.Wait()
}

func TestSafeConfigReloadUnchanged(t *testing.T) {
	clearCredentialEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeReloadConfig(t, configPath, reloadBaseConfig)

	sc := NewSafeConfig(loadedConfig(t, configPath))
	result, err := sc.ReloadConfig(configPath)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if result.CredentialsChanged() || result.NeedsRebuild() {
		t.Errorf("Expected no changes, got %+v", result)
	}
}

func TestSafeConfigReloadTokenChanged(t *testing.T) {
	clearCredentialEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeReloadConfig(t, configPath, reloadBaseConfig)
	sc := NewSafeConfig(loadedConfig(t, configPath))

	writeReloadConfig(t, configPath, `server:
  host: "localhost"
  port: "2112"
ncm:
  cpApiId: "cp-id"
  cpApiKey: "cp-key"
  ecmApiId: "ecm-id"
  ecmApiKey: "ecm-key"
  token: "token-two"
`)

	result, err := sc.ReloadConfig(configPath)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if !result.TokenChanged || result.APIKeysChanged {
		t.Errorf("Expected only token change, got %+v", result)
	}
	if result.NeedsRebuild() {
		t.Error("Token rotation must not require a rebuild")
	}
	if sc.Get().NCM.Token != "token-two" {
		t.Errorf("Expected new token applied, got %s", sc.Get().NCM.Token)
	}
}

func TestSafeConfigReloadKeysAndTransportChanged(t *testing.T) {
	clearCredentialEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeReloadConfig(t, configPath, reloadBaseConfig)
	sc := NewSafeConfig(loadedConfig(t, configPath))

	writeReloadConfig(t, configPath, `server:
  host: "localhost"
  port: "2112"
ncm:
  cpApiId: "cp-id"
  cpApiKey: "cp-key-rotated"
  ecmApiId: "ecm-id"
  ecmApiKey: "ecm-key"
  token: "token-one"
  retries: 1
  v3BaseUrl: "https://qa.example.com/api/v3"
`)

	result, err := sc.ReloadConfig(configPath)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if !result.APIKeysChanged || result.TokenChanged {
		t.Errorf("Expected only API keys change, got %+v", result)
	}
	if !result.BaseURLsChanged || !result.TransportChanged || !result.NeedsRebuild() {
		t.Errorf("Expected rebuild, got %+v", result)
	}
}

func TestSafeConfigReloadFileNotFound(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Host = "original"
	sc := NewSafeConfig(cfg)

	_, err := sc.ReloadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
	if sc.Get() != cfg {
		t.Error("Failed reload replaced the config")
	}
}

func TestSafeConfigReloadInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeReloadConfig(t, configPath, `server:
  host: "localhost"
  port: "not-a-port"
`)

	cfg := &Config{}
	cfg.Server.Host = "original"
	sc := NewSafeConfig(cfg)

	if _, err := sc.ReloadConfig(configPath); err == nil {
		t.Error("Expected error for invalid config")
	}
	if got := sc.Get(); got.Server.Host != "original" {
		t.Errorf("Expected original host preserved, got %s", got.Server.Host)
	}
}

func TestSafeConfigReloadMalformedYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeReloadConfig(t, configPath, `server:
  host: "localhost
  port: 2112
    invalid indent
`)

	cfg := &Config{}
	cfg.Server.Host = "original"
	sc := NewSafeConfig(cfg)

	if _, err := sc.ReloadConfig(configPath); err == nil {
		t.Error("Expected error for malformed YAML")
	}
	if got := sc.Get(); got.Server.Host != "original" {
		t.Errorf("Expected original host preserved, got %s", got.Server.Host)
	}
}

func TestSafeConfigConcurrentReload(t *testing.T) {
	clearCredentialEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeReloadConfig(t, configPath, reloadBaseConfig)
	sc := NewSafeConfig(loadedConfig(t, configPath))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = sc.Get().NCM.Token
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				_, _ = sc.ReloadConfig(configPath)
			}
		}()
	}
	wg.Wait()
}

func TestDiffConfigsFromNil(t *testing.T) {
	result := diffConfigs(nil, &Config{})
	if !result.CredentialsChanged() {
		t.Error("First load must count as a credential change")
	}
}
