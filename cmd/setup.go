package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/clipx/internal/shared"
)

// Setup writes config.toml when missing and creates both token stores, running migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err := shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
			} else {
				r.config = config
			}
		}
	}

	r.logger.Info("initializing token stores",
		"token_path", r.config.Storage.TokenPath, "cookie_path", r.config.Storage.CookiePath)
	if err := r.connect(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Config:       %s\n", configPath)
	r.writePlain("API:          %s\n", r.client.BaseURL())
	r.writePlain("Token store:  %s\n", r.tokens.Path())
	r.writePlain("Cookie store: %s\n", shared.ExpandPath(r.config.Storage.CookiePath))
	r.writePlain("Session:      %s\n", r.session.State())
	return nil
}
