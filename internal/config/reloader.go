package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called after a reload with the previous and the new config.
type ChangeCallback func(old, new *Config)

// Reloader watches the Vault agent secrets directory and swaps the in-memory
// config when a secret file is rewritten (for example a rotated Google client secret).
type Reloader struct {
	config    atomic.Pointer[Config]
	loader    *VaultLoader
	load      func() (*Config, error)
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
	debounce  time.Duration
	mu        sync.Mutex
	callbacks []ChangeCallback
}

// NewReloader creates a new config reloader
func NewReloader(initialConfig *Config, loader *VaultLoader) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	r := &Reloader{
		loader:   loader,
		load:     Load,
		watcher:  watcher,
		stopCh:   make(chan struct{}),
		debounce: 500 * time.Millisecond,
	}
	r.config.Store(initialConfig)

	return r, nil
}

// GetConfig returns the current configuration atomically
func (r *Reloader) GetConfig() *Config {
	return r.config.Load()
}

// OnChange registers a callback run after every successful reload.
func (r *Reloader) OnChange(callback ChangeCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// Start begins watching for configuration changes
func (r *Reloader) Start(ctx context.Context) error {
	if err := r.watcher.Add(r.loader.secretsDir); err != nil {
		return fmt.Errorf("failed to watch secrets directory: %w", err)
	}

	go r.watchLoop(ctx)
	slog.Info("Config reloader started", "secrets_dir", r.loader.secretsDir)
	return nil
}

// Stop stops watching for configuration changes
func (r *Reloader) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		close(r.stopCh)
		err = r.watcher.Close()
	})
	return err
}

// watchLoop processes file system events
func (r *Reloader) watchLoop(ctx context.Context) {
	// Vault Agent may rewrite a file several times in a row
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C
	needsReload := false

	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				slog.Debug("Config file changed", "file", event.Name, "op", event.Op)
				needsReload = true
				debounceTimer.Reset(r.debounce)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)

		case <-debounceTimer.C:
			if needsReload {
				if err := r.reload(); err != nil {
					slog.Error("Failed to reload configuration", "error", err)
				}
				needsReload = false
			}
		}
	}
}

// reload reloads the configuration from vault/environment
func (r *Reloader) reload() error {
	slog.Info("Reloading configuration")

	newConfig, err := r.load()
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	oldConfig := r.config.Swap(newConfig)
	logChanges(oldConfig, newConfig)

	r.mu.Lock()
	callbacks := append([]ChangeCallback(nil), r.callbacks...)
	r.mu.Unlock()
	for _, callback := range callbacks {
		callback(oldConfig, newConfig)
	}

	slog.Info("Configuration reloaded successfully")
	return nil
}

// logChanges logs which settings changed. Secret values are never logged.
func logChanges(old, new *Config) {
	if old.Port != new.Port {
		slog.Info("Config changed (restart required)", "key", "PORT", "old", old.Port, "new", new.Port)
	}
	if old.DatabaseURL != new.DatabaseURL {
		slog.Info("Config changed (restart required)", "key", "DATABASE_URL")
	}
	if old.GoogleClientID != new.GoogleClientID {
		slog.Info("Config changed", "key", "GOOGLE_CLIENT_ID")
	}
	if old.GoogleClientSecret != new.GoogleClientSecret {
		slog.Info("Config changed", "key", "GOOGLE_CLIENT_SECRET")
	}
	if old.VaultToken != new.VaultToken {
		slog.Info("Config changed", "key", "VAULT_TOKEN")
	}
	if old.CalendarSyncMode != new.CalendarSyncMode {
		slog.Info("Config changed (restart required)", "key", "CALENDAR_SYNC_MODE", "old", old.CalendarSyncMode, "new", new.CalendarSyncMode)
	}
}
