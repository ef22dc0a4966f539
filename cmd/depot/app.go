package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/depotlink/depotctl/internal/api"
	"github.com/depotlink/depotctl/internal/config"
	"github.com/depotlink/depotctl/internal/session"
	"github.com/depotlink/depotctl/internal/state"
)

// defaultConfigPath is where commands look for the config file unless
// overridden with --config.
const defaultConfigPath = "depot.yaml"

// app bundles the wired-up client stack every command needs.
type app struct {
	cfg    *config.Config
	client *api.Client
	store  *session.Store
}

// newApp loads config, opens the state database, and wires the portal
// client to the session store: the client reads the token through the
// store and the store tears the session down on any 401.
func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := state.Open(cfg.StateDB)
	if err != nil {
		return nil, err
	}

	// The store and client reference each other; the token source closes
	// over the store variable so it can be constructed second.
	var store *session.Store
	client, err := api.New(api.Opts{
		BaseURL: cfg.PortalURL,
		Timeout: cfg.Timeout(),
		TokenSource: func() string {
			if store == nil {
				return ""
			}
			return store.Token()
		},
		OnUnauthorized: func() {
			if store != nil {
				store.HandleUnauthorized()
			}
		},
	})
	if err != nil {
		return nil, err
	}

	store, err = session.New(session.Opts{DB: db, Portal: client})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, client: client, store: store}, nil
}

// requireSession restores the persisted session, translating the
// unauthenticated case into a login hint.
func (a *app) requireSession(ctx context.Context) (*api.Profile, error) {
	profile, err := a.store.Restore(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, fmt.Errorf("not logged in: run `depot login` first")
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}
