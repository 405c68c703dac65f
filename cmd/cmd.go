// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/clipx/internal/formatter"
)

// rootFlags are available to every command.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// authCommand handles login state
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in, register and inspect the current session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "Account email (prompted when omitted)",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted twice when omitted)",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show session state, cookie expiry and token claims",
				Action: r.AuthStatus,
			},
			{
				Name:  "whoami",
				Usage: "Show the logged in user",
				Flags: append(jsonFlags(), &cli.BoolFlag{
					Name:  "refresh",
					Usage: "Revalidate the session against the API",
				}),
				Action: r.AuthWhoami,
			},
		},
	}
}

// clipsCommand handles feed and clip operations
func clipsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "clips",
		Aliases: []string{"clip"},
		Usage:   "Browse, upload and like clips",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List one page of the feed",
				Flags: append(jsonFlags(),
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number, starting at 1",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Clips per page (default: api.page_size)",
					},
				),
				Action: r.ClipsList,
			},
			{
				Name:      "show",
				Usage:     "Show a clip with its comments",
				ArgsUsage: "<clip-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  jsonFlags(),
				Action: r.ClipsShow,
			},
			{
				Name:  "upload",
				Usage: "Share a YouTube clip",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "YouTube video URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Clip title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Clip description",
					},
					&cli.StringFlag{
						Name:  "start",
						Usage: "Start timestamp, e.g. 1:23 (default: 0:00)",
					},
					&cli.StringFlag{
						Name:  "end",
						Usage: "End timestamp, e.g. 1:45",
					},
				},
				Action: r.ClipsUpload,
			},
			{
				Name:      "like",
				Usage:     "Like or unlike a clip",
				ArgsUsage: "<clip-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.ClipsLike,
			},
			{
				Name:      "watch",
				Usage:     "Play a clip in the browser from a local page",
				ArgsUsage: "<clip-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the page URL instead of opening it",
					},
				},
				Action: r.ClipsWatch,
			},
			{
				Name:  "export",
				Usage: "Crawl the feed and write it to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, markdown, csv or json",
						Value:   string(formatter.FormatText),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: clips.{ext})",
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Stop after this many pages, 0 for the whole feed",
					},
				},
				Action: r.ClipsExport,
			},
		},
	}
}

// commentsCommand handles clip comments
func commentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "comments",
		Usage: "Read and post comments",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List comments on a clip",
				ArgsUsage: "<clip-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "clip-id",
					},
				},
				Flags:  jsonFlags(),
				Action: r.CommentsList,
			},
			{
				Name:      "add",
				Usage:     "Comment on a clip",
				ArgsUsage: "<clip-id> <content>",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "clip-id",
					},
					&cli.StringArg{
						Name: "content",
					},
				},
				Action: r.CommentsAdd,
			},
		},
	}
}

// usersCommand handles user profiles
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "View user profiles",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a user and their clips",
				ArgsUsage: "<user-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  jsonFlags(),
				Action: r.UsersShow,
			},
		},
	}
}

// tuiCommand launches the interactive feed
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse the feed interactively",
		Action: r.TUI,
	}
}

// setupCommand writes the config file and creates the token stores
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the token stores",
		Action: r.Setup,
	}
}
