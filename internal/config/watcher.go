// This file implements hot reloading of configuration in development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches for configuration changes and hot reloads them.
// This is primarily used in development for tuning cache capacities and TTLs
// without restarting the service.
type Watcher struct {
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(initial *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		config:    initial,
		callbacks: make([]func(*Config), 0),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}

	// Only enable hot reloading in development
	if initial.Environment == Development {
		fsWatcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		w.watcher = fsWatcher

		if err := w.watchConfigFiles(); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("failed to watch config files: %w", err)
		}

		go w.watchLoop()

		logger.Info("Configuration hot reloading enabled",
			zap.String("environment", string(initial.Environment)),
		)
	}

	return w, nil
}

// watchConfigFiles adds configuration files to the watcher.
func (w *Watcher) watchConfigFiles() error {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "./config"
	}

	err := filepath.Walk(configDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if info.IsDir() || isConfigFile(path) {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("Failed to watch file",
					zap.String("path", path),
					zap.Error(err),
				)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk config directory: %w", err)
	}

	return nil
}

// watchLoop monitors for file changes and triggers reloads.
func (w *Watcher) watchLoop() {
	defer w.watcher.Close()

	// Debounce to avoid multiple rapid reloads from editors writing twice
	var debounceTimer *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && isConfigFile(event.Name) {
				w.logger.Info("Configuration file changed",
					zap.String("file", event.Name),
					zap.String("operation", event.Op.String()),
				)

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					w.reloadConfig()
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			w.logger.Info("Stopping configuration watcher")
			return
		}
	}
}

// reloadConfig reloads the configuration from files.
func (w *Watcher) reloadConfig() {
	w.logger.Info("Reloading configuration...")

	newConfig, err := LoadWithLoader()
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	if w.configsEqual(w.config, newConfig) {
		w.logger.Debug("Configuration unchanged after reload")
		return
	}

	w.mu.Lock()
	oldConfig := w.config
	w.config = newConfig
	w.mu.Unlock()

	w.logConfigChanges(oldConfig, newConfig)
	w.notifyCallbacks(newConfig)
}

// OnChange registers a callback to be called when configuration changes.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// GetConfig returns the current configuration.
func (w *Watcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops the configuration watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

// notifyCallbacks notifies all registered callbacks of a configuration change.
func (w *Watcher) notifyCallbacks(newConfig *Config) {
	w.mu.RLock()
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for i, callback := range callbacks {
		// Run callbacks in goroutines to avoid blocking the watch loop
		go func(idx int, cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Config change callback panicked",
						zap.Int("callback_index", idx),
						zap.Any("panic", r),
					)
				}
			}()
			cb(newConfig)
		}(i, callback)
	}
}

// configsEqual checks whether the reloadable parts of two configurations match.
func (w *Watcher) configsEqual(a, b *Config) bool {
	return a.Environment == b.Environment &&
		a.Server.Port == b.Server.Port &&
		a.Data.Dir == b.Data.Dir &&
		a.Cache == b.Cache &&
		a.Logging == b.Logging
}

// logConfigChanges logs what changed between configurations.
func (w *Watcher) logConfigChanges(old, new *Config) {
	changes := make([]string, 0)

	if old.Server.Port != new.Server.Port {
		changes = append(changes, fmt.Sprintf("port: %d -> %d", old.Server.Port, new.Server.Port))
	}
	if old.Data.Dir != new.Data.Dir {
		changes = append(changes, fmt.Sprintf("data dir: %s -> %s", old.Data.Dir, new.Data.Dir))
	}
	if old.Cache != new.Cache {
		changes = append(changes, fmt.Sprintf("cache tuning: %+v -> %+v", old.Cache, new.Cache))
	}

	if len(changes) > 0 {
		w.logger.Info("Configuration changes detected",
			zap.Strings("changes", changes),
		)
	}
}

// isConfigFile checks if a file is a configuration file.
func isConfigFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml" || ext == ".json"
}
