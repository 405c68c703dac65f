package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/clipx/internal/formatter"
	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/server"
	"github.com/desertthunder/clipx/internal/shared"
	"github.com/desertthunder/clipx/internal/tasks"
	"github.com/desertthunder/clipx/internal/validation"
)

// ClipsList prints one page of the feed.
func (r *Runner) ClipsList(ctx context.Context, cmd *cli.Command) error {
	page := int(cmd.Int("page"))
	limit := int(cmd.Int("limit"))
	if page < 1 {
		return fmt.Errorf("%w: page must be at least 1", shared.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = r.config.API.PageSize
	}

	if err := r.connect(ctx); err != nil {
		return err
	}

	resp, err := r.client.ListClips(ctx, page, limit)
	if err != nil {
		return r.checkAuth(fmt.Errorf("failed to list clips: %w", err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(resp, cmd.Bool("pretty"))
	}

	if len(resp.Clips) == 0 {
		return r.writePlain("No clips yet.\n")
	}
	r.output.Write(formatter.ClipsToText(resp.Clips, r.now()))
	if resp.HasMore {
		r.writePlainln("More clips: clipx clips list --page %d", page+1)
	}
	return nil
}

// ClipsShow prints a clip with its comments.
func (r *Runner) ClipsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: clip id", shared.ErrMissingArgument)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	thread, err := tasks.LoadClip(ctx, r.client, id)
	if err != nil {
		return r.checkAuth(fmt.Errorf("failed to load clip: %w", err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(thread, cmd.Bool("pretty"))
	}
	_, err = r.output.Write(formatter.ClipDetail(*thread.Clip, thread.Comments, r.now()))
	return err
}

// ClipsUpload validates the clip form and shares the clip.
func (r *Runner) ClipsUpload(ctx context.Context, cmd *cli.Command) error {
	clip, err := validation.ValidateClip(models.NewClip{
		YouTubeURL:  cmd.String("url"),
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		StartTime:   cmd.String("start"),
		EndTime:     cmd.String("end"),
	})
	if err != nil {
		return err
	}

	if err := r.connect(ctx); err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	r.logger.Info("uploading clip", "title", clip.Title, "url", clip.YouTubeURL)
	created, err := r.client.CreateClip(ctx, clip)
	if err != nil {
		return r.checkAuth(fmt.Errorf("failed to upload clip: %w", err))
	}

	r.writePlain("✓ Shared clip %s\n\n", created.ID)
	_, err = r.output.Write(formatter.ClipDetail(*created, nil, r.now()))
	return err
}

// ClipsLike toggles the current user's like on a clip.
func (r *Runner) ClipsLike(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: clip id", shared.ErrMissingArgument)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	res, err := r.client.LikeClip(ctx, id)
	if err != nil {
		return r.checkAuth(fmt.Errorf("failed to like clip: %w", err))
	}

	if res.IsLiked {
		return r.writePlain("♥ Liked (%s)\n", shared.Plural(res.LikesCount, "like", "likes"))
	}
	return r.writePlain("Like removed (%s)\n", shared.Plural(res.LikesCount, "like", "likes"))
}

// ClipsWatch serves the clip's embed page locally until interrupted.
func (r *Runner) ClipsWatch(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: clip id", shared.ErrMissingArgument)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	if _, err := r.client.GetClip(ctx, id); err != nil {
		return r.checkAuth(fmt.Errorf("failed to load clip: %w", err))
	}

	router := server.NewWatchRouter(r.client, r.logger)
	srv, err := server.Listen(r.config.Server.Addr(), router, r.logger)
	if err != nil {
		return err
	}

	pageURL := srv.URL() + "/clip/" + id
	if cmd.Bool("no-browser") {
		r.writePlain("→ Watch at %s\n", pageURL)
	} else {
		r.writePlain("→ Opening %s\n", pageURL)
		if err := r.openURL(pageURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", pageURL)
		}
	}
	r.writePlain("Press Ctrl+C to stop.\n")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return srv.Serve(ctx)
}

// ClipsExport crawls the feed and writes it in the requested format.
func (r *Runner) ClipsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	maxPages := int(cmd.Int("max-pages"))
	if maxPages < 0 {
		return fmt.Errorf("%w: max-pages must not be negative", shared.ErrInvalidArgument)
	}

	if err := r.connect(ctx); err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchFeed:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.WriteExport:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Export(ctx, progressCh, tasks.ExportOpts{
		Format:   format,
		Output:   cmd.String("output"),
		MaxPages: maxPages,
	})
	close(progressCh)
	<-done

	if err != nil {
		return r.checkAuth(err)
	}

	r.writePlainln("")
	r.writePlainHeader("Export Complete!")
	r.writePlain("File:   %s\n", result.Path)
	r.writePlain("Clips:  %d\n", result.Count)
	r.writePlain("Pages:  %d\n", result.Pages)
	if result.Truncated {
		r.writePlain("Stopped early; the API reports more clips.\n")
	}
	return nil
}
