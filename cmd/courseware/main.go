package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/openlearn/courseware/cmd/courseware/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login   commands.LoginCmd   `cmd:"" help:"Sign in and persist the session"`
		Logout  commands.LogoutCmd  `cmd:"" help:"Sign out and clear the persisted session"`
		Whoami  commands.WhoamiCmd  `cmd:"" help:"Show the signed-in user"`
		Courses commands.CoursesCmd `cmd:"" help:"List the course catalog"`
		Enroll  commands.EnrollCmd  `cmd:"" help:"Enroll in a course"`
		Submit  commands.SubmitCmd  `cmd:"" help:"Submit work for a course task"`
		Serve   commands.ServeCmd   `cmd:"" help:"Run the local web shell"`
		Config  string              `help:"Config file path" default:"" env:"COURSEWARE_CONFIG"`
		Debug   bool                `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, ConfigPath: cli.Config})
	cmd.FatalIfErrorf(err)
}
