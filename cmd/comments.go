package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/clipx/internal/formatter"
	"github.com/desertthunder/clipx/internal/shared"
	"github.com/desertthunder/clipx/internal/validation"
)

// CommentsList prints the comments on a clip.
func (r *Runner) CommentsList(ctx context.Context, cmd *cli.Command) error {
	clipID := cmd.StringArg("clip-id")
	if clipID == "" {
		return fmt.Errorf("%w: clip id", shared.ErrMissingArgument)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	comments, err := r.client.ListComments(ctx, clipID)
	if err != nil {
		return r.checkAuth(fmt.Errorf("failed to list comments: %w", err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(comments, cmd.Bool("pretty"))
	}
	_, err = r.output.Write(formatter.CommentsToText(comments, r.now()))
	return err
}

// CommentsAdd posts a comment as the current user.
func (r *Runner) CommentsAdd(ctx context.Context, cmd *cli.Command) error {
	clipID := cmd.StringArg("clip-id")
	if clipID == "" {
		return fmt.Errorf("%w: clip id", shared.ErrMissingArgument)
	}
	content, err := validation.ValidateComment(cmd.StringArg("content"))
	if err != nil {
		return err
	}

	if err := r.connect(ctx); err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	comment, err := r.client.AddComment(ctx, clipID, content)
	if err != nil {
		return r.checkAuth(fmt.Errorf("failed to add comment: %w", err))
	}

	r.logger.Debug("comment added", "clip", clipID, "comment", comment.ID)
	return r.writePlain("✓ Comment posted\n")
}
