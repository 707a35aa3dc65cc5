// Package commands implements the courseware CLI commands. Each
// command builds its own session stack and injects it where needed;
// there is no shared global session.
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openlearn/courseware/internal/api"
	"github.com/openlearn/courseware/internal/config"
	"github.com/openlearn/courseware/internal/credentials"
	"github.com/openlearn/courseware/internal/logger"
	"github.com/openlearn/courseware/internal/session"
)

type Globals struct {
	Debug      bool
	Version    string
	ConfigPath string
}

// stack bundles the session machinery a command needs.
type stack struct {
	cfg    config.Config
	log    zerolog.Logger
	client *api.Client
	store  *session.Store
	bus    *session.Bus
}

// buildStack constructs the client, credential store, event bus and
// session store, wired together in dependency order. serverOverride
// takes precedence over the config file when non-empty.
func buildStack(globals *Globals, serverOverride string) (*stack, error) {
	log := logger.Setup(globals.Debug)

	path := globals.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if serverOverride != "" {
		cfg.ServerURL = serverOverride
	}

	creds, err := credentials.NewFileStore(cfg.CredentialsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	client := api.NewClient(api.Config{
		BaseURL:  cfg.ServerURL,
		Timeout:  cfg.Timeout(),
		CacheDir: cfg.CacheDir,
	}, log)

	bus := session.NewBus()
	store := session.NewStore(client, creds, bus)
	client.UseSession(store)

	return &stack{cfg: cfg, log: log, client: client, store: store, bus: bus}, nil
}

// restore settles the session from persisted credentials, ignoring the
// restore outcome; commands that need a signed-in user check the state
// afterwards.
func (s *stack) restore(ctx context.Context) {
	if err := s.store.Restore(ctx); err != nil {
		s.log.Debug().Err(err).Msg("session restore failed")
	}
}
