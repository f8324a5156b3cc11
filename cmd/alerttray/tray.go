package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/alerttray/internal/auth"
	"github.com/example/alerttray/internal/service"
	"github.com/example/alerttray/internal/tray"
	"github.com/example/alerttray/internal/visibility"
	"github.com/example/alerttray/internal/window"
)

// headlessDisplay stands in for screen metrics when no toolkit is attached.
func headlessDisplay() window.Display {
	return window.Display{WorkArea: image.Rect(0, 0, 1920, 1080), Scale: 1}
}

func runTray(ctx context.Context, env environment) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := env.controlToken()
	if err != nil {
		return err
	}
	endpoint := env.endpoint()

	a := &app{ctx: ctx}
	server, err := service.Listen(endpoint, token, a)
	if errors.Is(err, service.ErrAlreadyRunning) {
		if actErr := service.Activate(ctx, endpoint, token); actErr != nil {
			return fmt.Errorf("%w; activating it failed: %v", err, actErr)
		}
		log.Printf("alerttray is already running; brought its window to the front")
		return nil
	}
	if err != nil {
		return err
	}

	// The browser opens once the listener is bound, so the tray can show
	// the waiting state from here.
	manager, store, err := env.manager(auth.WithBrowser(func(u string) error {
		a.runner.Refresh()
		return env.openURL(u)
	}))
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	surface := &window.Headless{}
	anchored := window.NewAnchored(surface, headlessDisplay)

	a.manager = manager
	a.coord = visibility.New(anchored, visibility.PlatformDefaults())
	anchored.Bind(a.coord)
	a.runner = tray.NewRunner(a, a,
		tray.WithWatcher(store),
		tray.WithRefreshInterval(time.Duration(cfg.RefreshIntervalMinutes)*time.Minute),
	)

	go func() {
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("control endpoint stopped: %v", err)
		}
	}()

	log.Printf("alerttray started (config %s)", store.Path())
	err = a.runner.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
