package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/example/alerttray/internal/logging"
)

const watchDebounce = 100 * time.Millisecond

// Store serialises access to the encrypted configuration file. Every call
// holds the persistence lock only for the duration of the disk operation.
type Store struct {
	mu         sync.Mutex
	path       string
	passphrase string
}

// NewStore resolves the configuration path and returns a Store protected by
// passphrase.
func NewStore(passphrase string) (*Store, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(path, passphrase), nil
}

// NewStoreAt returns a Store backed by an explicit file path.
func NewStoreAt(path, passphrase string) *Store {
	return &Store{path: path, passphrase: passphrase}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load reads and decrypts the configuration. A missing file yields defaults.
func (s *Store) Load() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadFile(s.path, s.passphrase)
}

// Save encrypts and atomically replaces the configuration file.
func (s *Store) Save(cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveFile(s.path, cfg, s.passphrase)
}

// Update performs a load-modify-save cycle under a single lock acquisition.
// When fn returns an error nothing is written.
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := loadFile(s.path, s.passphrase)
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return saveFile(s.path, cfg, s.passphrase)
}

// Watch invokes onChange whenever the configuration file is replaced or
// removed by any process, coalescing bursts of filesystem events. It blocks
// until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logging.Debugf("watching %s for configuration changes", dir)

	name := filepath.Base(s.path)
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				if ctx.Err() == nil {
					onChange()
				}
			})
			timerMu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Debugf("config watcher error: %v", err)
		}
	}
}
