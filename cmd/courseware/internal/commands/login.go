package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/openlearn/courseware/internal/session"
)

type LoginCmd struct {
	Server     string `help:"Server URL override" default:""`
	Identifier string `arg:"" help:"Username or email"`
	Secret     string `help:"Password" env:"COURSEWARE_SECRET" required:""`
	Retries    uint   `help:"Attempts on network failure" default:"3"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	stack, err := buildStack(globals, l.Server)
	if err != nil {
		return err
	}
	stack.restore(ctx)

	if stack.store.Snapshot().Authenticated() {
		fmt.Printf("Already signed in as %s. Run logout first to switch users.\n", stack.store.Snapshot().User.Username)
		return nil
	}

	// Network failures are worth retrying; a rejected password is not
	login := func() (struct{}, error) {
		err := stack.store.Login(ctx, l.Identifier, l.Secret)
		if err != nil && !session.IsNetwork(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	if _, err := backoff.Retry(ctx, login,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(l.Retries),
		backoff.WithMaxElapsedTime(30*time.Second),
	); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	snap := stack.store.Snapshot()
	fmt.Printf("Signed in as %s (%s)\n", snap.User.Username, snap.User.Role)
	return nil
}
