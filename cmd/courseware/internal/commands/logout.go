package commands

import (
	"context"
	"fmt"
)

type LogoutCmd struct {
	Server string `help:"Server URL override" default:""`
}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	stack, err := buildStack(globals, l.Server)
	if err != nil {
		return err
	}
	stack.restore(ctx)

	stack.store.Logout(ctx)
	fmt.Println("Signed out.")
	return nil
}
