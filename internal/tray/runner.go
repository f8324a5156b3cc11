package tray

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/example/alerttray/internal/logging"
)

const defaultRefreshInterval = 60 * time.Minute

// Option customises a Runner.
type Option func(*Runner)

// WithRefreshInterval sets how often the stored session is re-verified.
func WithRefreshInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.refreshInterval = d
		}
	}
}

// WithWatcher refreshes the tray whenever the configuration changes on disk,
// for example after a sign-in from the command line.
func WithWatcher(w Watcher) Option {
	return func(r *Runner) { r.watcher = w }
}

func withController(c trayController) Option {
	return func(r *Runner) { r.tray = c }
}

// Runner keeps the tray menu and icon in step with the sign-in state.
type Runner struct {
	refreshInterval time.Duration
	source          StatusSource
	actions         Actions
	watcher         Watcher

	mu         sync.RWMutex
	last       Status
	lastDigest string

	tray            trayController
	updates         chan UpdatePayload
	refreshRequests chan struct{}
}

// NewRunner constructs a Runner rendering the state reported by source.
func NewRunner(source StatusSource, actions Actions, opts ...Option) *Runner {
	r := &Runner{
		refreshInterval: defaultRefreshInterval,
		source:          source,
		actions:         actions,
		refreshRequests: make(chan struct{}, 1),
		updates:         make(chan UpdatePayload, 1),
	}
	r.tray = newTrayController()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs the tray until ctx is canceled or the user quits.
func (r *Runner) Start(ctx context.Context) error {
	logging.Debugf("tray runner initialising with refresh interval %s", r.refreshInterval)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	trayErr := make(chan error, 1)
	go func() {
		trayErr <- r.tray.Run(ctx, r.updates, r.actions)
	}()

	if r.watcher != nil {
		go func() {
			err := r.watcher.Watch(ctx, r.Refresh)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("config watch stopped: %v", err)
			}
		}()
	}

	if err := r.syncOnce(ctx); err != nil {
		log.Printf("initial status check failed: %v", err)
	}

	ticker := time.NewTicker(r.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("tray stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := r.syncOnce(ctx); err != nil {
				log.Printf("status refresh failed: %v", err)
			}
		case <-r.refreshRequests:
			logging.Debugf("tray refresh requested")
			if err := r.syncOnce(ctx); err != nil {
				log.Printf("status refresh failed: %v", err)
			}
		case err := <-trayErr:
			return err
		}
	}
}

// Refresh asks the runner to re-read the sign-in state. It never blocks.
func (r *Runner) Refresh() {
	select {
	case r.refreshRequests <- struct{}{}:
	default:
	}
}

// Latest returns the most recently published state.
func (r *Runner) Latest() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func (r *Runner) syncOnce(ctx context.Context) error {
	status, err := r.source.TrayStatus(ctx)
	if err != nil {
		return err
	}
	r.setTrayState(status)
	return nil
}

func (r *Runner) setTrayState(status Status) {
	digest := hashStatus(status)

	r.mu.Lock()
	if digest != "" && digest == r.lastDigest {
		r.mu.Unlock()
		return
	}
	r.last = status
	r.lastDigest = digest
	r.mu.Unlock()

	logging.Debugf("published tray state %q (digest=%s)", status.Label(), digest)
	r.publish(UpdatePayload{Status: status, Icon: StatusIcon(status.SignedIn)})
}

// publish replaces any update the controller has not consumed yet.
func (r *Runner) publish(update UpdatePayload) {
	select {
	case r.updates <- update:
	default:
		select {
		case <-r.updates:
		default:
		}
		select {
		case r.updates <- update:
		default:
		}
	}
}

func hashStatus(status Status) string {
	payload, err := json.Marshal(status)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
