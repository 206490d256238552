package config

import (
	"sync"

	"github.com/fjacquet/ncm_client/internal/models"
	"github.com/fjacquet/ncm_client/pkg/ncm"
	log "github.com/sirupsen/logrus"
)

// ClientBuilder creates an NCM client for a validated configuration.
type ClientBuilder func(cfg *models.Config) *ncm.Client

// ClientReloader applies configuration reloads to a live NCM client.
// Credential changes are rotated in place; endpoint or transport changes
// rebuild the client and close the old one.
type ClientReloader struct {
	cfg   *models.SafeConfig
	build ClientBuilder

	mu        sync.RWMutex
	client    *ncm.Client
	listeners []func(*ncm.Client)
}

// NewClientReloader builds the initial client from cfg.
func NewClientReloader(cfg *models.SafeConfig, build ClientBuilder) *ClientReloader {
	return &ClientReloader{
		cfg:    cfg,
		build:  build,
		client: build(cfg.Get()),
	}
}

// Client returns the current client.
func (r *ClientReloader) Client() *ncm.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// OnRebuild registers fn to receive every rebuilt client.
func (r *ClientReloader) OnRebuild(fn func(*ncm.Client)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Reload is a ReloadFunc: it reloads configPath and applies the result.
func (r *ClientReloader) Reload(configPath string) error {
	result, err := r.cfg.ReloadConfig(configPath)
	if err != nil {
		return err
	}
	cfg := r.cfg.Get()

	if result.NeedsRebuild() {
		next := r.build(cfg)
		r.mu.Lock()
		prev := r.client
		r.client = next
		listeners := append([]func(*ncm.Client){}, r.listeners...)
		r.mu.Unlock()

		for _, fn := range listeners {
			fn(next)
		}
		prev.Close()
		log.Info("NCM client rebuilt after configuration change")
		return nil
	}

	client := r.Client()
	if result.APIKeysChanged {
		client.SetAPIKeys(cfg.NCM.APIKeys)
		log.WithField("keys", cfg.MaskedCredentials()).Info("NCM v2 API keys rotated")
	}
	if result.TokenChanged {
		client.SetToken(cfg.NCM.Token)
		log.Info("NCM v3 token rotated")
	}
	return nil
}

// Close closes the current client.
func (r *ClientReloader) Close() {
	r.Client().Close()
}
