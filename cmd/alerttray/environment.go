package main

import (
	"fmt"

	"github.com/example/alerttray/internal/auth"
	"github.com/example/alerttray/internal/browser"
	"github.com/example/alerttray/internal/config"
	"github.com/example/alerttray/internal/ipc"
	"github.com/example/alerttray/internal/security"
)

// environment resolves everything a command needs from the outside world.
type environment struct {
	settings  func() auth.Settings
	secret    func() (string, error)
	storePath func() (string, error)
	endpoint  func() ipc.Endpoint
	openURL   func(string) error
}

func defaultEnvironment() environment {
	return environment{
		settings:  auth.DefaultSettings,
		secret:    config.ResolveSecret,
		storePath: config.Path,
		endpoint:  ipc.DefaultEndpoint,
		openURL:   browser.Open,
	}
}

func (e environment) store() (*config.Store, error) {
	secret, err := e.secret()
	if err != nil {
		return nil, err
	}
	path, err := e.storePath()
	if err != nil {
		return nil, err
	}
	return config.NewStoreAt(path, secret), nil
}

func (e environment) controlToken() (string, error) {
	secret, err := e.secret()
	if err != nil {
		return "", err
	}
	token := security.ResolveControlToken(secret)
	if token == "" {
		return "", fmt.Errorf("control token could not be resolved")
	}
	return token, nil
}

// manager builds a SessionManager against the configured store.
func (e environment) manager(opts ...auth.Option) (*auth.Manager, *config.Store, error) {
	store, err := e.store()
	if err != nil {
		return nil, nil, err
	}
	opts = append([]auth.Option{auth.WithBrowser(e.openURL)}, opts...)
	return auth.NewManager(e.settings(), store, opts...), store, nil
}
