package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/clipx/internal/shared"
	"github.com/desertthunder/clipx/internal/ui"
)

// TUI launches the interactive feed browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(filepath.Dir(shared.ExpandPath(r.config.Storage.TokenPath)), "tui.log")
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.connect(ctx); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		API:      r.client,
		Session:  r.session,
		PageSize: r.config.API.PageSize,
		Logger:   r.logger,
		Open:     r.openURL,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
