// Package config wires configuration reload triggers (file changes and
// SIGHUP) to the live NCM client.
package config

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// reloadDebounce coalesces the burst of events one save produces.
const reloadDebounce = 250 * time.Millisecond

// ReloadFunc is called when config reload is triggered.
// Returns error if reload fails (logged but doesn't stop watcher).
type ReloadFunc func(configPath string) error

// SetupSIGHUPHandler calls reloadFn on every SIGHUP until ctx is done.
// Runs in a goroutine, returns immediately.
//
// Usage:
//
//	SetupSIGHUPHandler(ctx, "/path/to/config.yaml", reloader.Reload)
//	// Now: kill -HUP <pid> rotates NCM credentials
func SetupSIGHUPHandler(ctx context.Context, configPath string, reloadFn ReloadFunc) {
	// Buffered channel prevents signal loss if handler is busy
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sighup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sighup:
				log.Info("SIGHUP received, reloading configuration...")
				if err := reloadFn(configPath); err != nil {
					log.Errorf("Configuration reload failed: %v", err)
				}
			}
		}
	}()

	log.Info("SIGHUP handler configured for config reload")
}

// WatchConfigFile watches config file for changes and triggers reload.
//
// The directory is watched rather than the file: editors save through a
// temp file and rename, which replaces the watched inode. Events for other
// files are ignored, and events arriving within reloadDebounce of each
// other trigger a single reload.
//
// Returns the watcher for cleanup (caller should defer watcher.Close()).
//
// Usage:
//
//	watcher, err := WatchConfigFile("/path/to/config.yaml", reloader.Reload)
//	if err != nil {
//	    log.Warnf("File watcher setup failed: %v", err)
//	} else {
//	    defer watcher.Close()
//	}
func WatchConfigFile(configPath string, reloadFn ReloadFunc) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Dir(configPath)
	configName := filepath.Base(configPath)

	if err := watcher.Add(configDir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	trigger := func() {
		log.Info("Config file changed, reloading...")
		if err := reloadFn(configPath); err != nil {
			log.Errorf("Configuration reload failed: %v", err)
		}
	}

	go func() {
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != configName {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, trigger)
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("File watcher error: %v", err)
			}
		}
	}()

	log.Infof("Watching config file: %s", configPath)
	return watcher, nil
}
