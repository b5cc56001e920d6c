package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	appLog "github.com/jdhoffa/lookout-g/internal/log"
)

// Watcher holds the current configuration and reloads it when the file
// changes on disk.
type Watcher struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewWatcher performs the initial Load.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{path: path, current: cfg}, nil
}

// Config returns the latest successfully loaded configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Reload re-reads the file. On error the previous config stays current.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := make([]func(*Config), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
	return nil
}

// Watch reloads on writes to the config file until stop is called. The
// parent directory is watched so editors that replace the file by rename
// are handled.
func (w *Watcher) Watch() (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	done := make(chan struct{})
	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := w.Reload(); err != nil {
					appLog.Error("config reload failed; keeping previous config", err, "path", w.path)
					continue
				}
				appLog.Info("config reloaded", "path", w.path)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				appLog.Error("config watcher error", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}
