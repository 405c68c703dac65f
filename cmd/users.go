package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/clipx/internal/formatter"
	"github.com/desertthunder/clipx/internal/shared"
	"github.com/desertthunder/clipx/internal/tasks"
)

// UsersShow prints a user's profile and uploads.
func (r *Runner) UsersShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	profile, err := tasks.LoadProfile(ctx, r.client, id)
	if err != nil {
		return r.checkAuth(fmt.Errorf("failed to load profile: %w", err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}
	_, err = r.output.Write(formatter.ProfileToText(*profile.User, profile.Clips, r.now()))
	return err
}
