package commands

import (
	"context"
	"fmt"
)

type WhoamiCmd struct {
	Server string `help:"Server URL override" default:""`
}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	stack, err := buildStack(globals, w.Server)
	if err != nil {
		return err
	}
	stack.restore(ctx)

	snap := stack.store.Snapshot()
	if !snap.Authenticated() {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("User:  %s\n", snap.User.Username)
	fmt.Printf("Name:  %s\n", snap.User.DisplayName)
	fmt.Printf("Email: %s\n", snap.User.Email)
	fmt.Printf("Role:  %s\n", snap.User.Role)
	return nil
}
