package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/desertthunder/clipx/internal/repositories"
	"github.com/desertthunder/clipx/internal/services"
	"github.com/desertthunder/clipx/internal/session"
	"github.com/desertthunder/clipx/internal/shared"
	"github.com/desertthunder/clipx/internal/storage/boltdb"
	"github.com/desertthunder/clipx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session and its stores are opened on first use by [Runner.connect], so commands such as
// setup run without touching the network.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	reader     *bufio.Reader
	openURL    func(string) error
	now        func() time.Time

	client  *services.Client
	session *session.Store
	engine  *tasks.FeedEngine
	tokens  *boltdb.Storage
	db      *sql.DB
	cookies *repositories.CookieRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	OpenURL    func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		openURL:    opts.OpenURL,
		now:        time.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, clipsCommand, commentsCommand, usersCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the config file named by --config and applies the log level.
//
// A missing file is not an error: the embedded defaults are used.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.config.ApplyEnv()
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	r.httpClient.Timeout = r.config.API.Timeout()
	return ctx, nil
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	logger.SetLevel(r.logger.GetLevel())
	r.logger = logger
	if r.client != nil {
		r.client.WithLogger(logger)
	}
}

// connect opens both token stores, builds the API client and restores the session.
func (r *Runner) connect(ctx context.Context) error {
	if r.session != nil {
		return nil
	}

	tokens, err := boltdb.New(shared.ExpandPath(r.config.Storage.TokenPath))
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	db, err := shared.OpenDatabase(shared.ExpandPath(r.config.Storage.CookiePath), r.config.Storage.MaxOpenConns, r.config.Storage.MaxIdleConns)
	if err != nil {
		tokens.Close()
		return fmt.Errorf("failed to open cookie store: %w", err)
	}

	cookies := repositories.NewCookieRepository(db, repositories.DefaultCookieTTL)
	if n, err := cookies.PurgeExpired(ctx); err != nil {
		r.logger.Warn("failed to purge expired cookies", "error", err)
	} else if n > 0 {
		r.logger.Debug("purged expired cookies", "count", n)
	}

	r.tokens, r.db, r.cookies = tokens, db, cookies
	r.client = services.NewClient(r.config.API.BaseURL, r.httpClient, r.currentToken).WithLogger(r.logger)
	r.session = session.Open(ctx, session.Options{
		Stores:           []session.TokenStore{tokens, cookies},
		Profile:          r.client,
		BootstrapTimeout: r.config.API.BootstrapTimeout(),
		Logger:           r.logger,
	})
	r.engine = tasks.NewFeedEngine(r.client, tasks.EngineOpts{
		RateLimit: r.config.API.RateLimit,
		PageSize:  r.config.API.PageSize,
		Logger:    r.logger,
	})

	r.logger.Debug("session ready", "state", r.session.State())
	return nil
}

func (r *Runner) currentToken() string {
	if r.session == nil {
		return ""
	}
	return r.session.Token()
}

// Close releases the stores opened by [Runner.connect].
func (r *Runner) Close() error {
	var errs []error
	if r.tokens != nil {
		errs = append(errs, r.tokens.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

// requireAuth fails fast when no user is logged in.
func (r *Runner) requireAuth() error {
	if !r.session.IsAuthenticated() {
		return fmt.Errorf("%w: run `clipx auth login` first", shared.ErrNotAuthenticated)
	}
	return nil
}

// checkAuth logs the session out when the API rejected its credential.
func (r *Runner) checkAuth(err error) error {
	if r.session != nil && r.session.HandleAuthFailure(err) {
		return fmt.Errorf("%w (session cleared, run `clipx auth login` again)", err)
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// prompt reads one line of input after printing label.
func (r *Runner) prompt(label string) (string, error) {
	if r.reader == nil {
		r.reader = bufio.NewReader(r.input)
	}
	r.writePlain("%s", label)
	line, err := r.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("%w: no input for %q", shared.ErrMissingArgument, strings.TrimSpace(label))
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword reads a password without echo when input is a terminal.
func (r *Runner) promptPassword(label string) (string, error) {
	f, ok := r.input.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return r.prompt(label)
	}

	r.writePlain("%s", label)
	b, err := term.ReadPassword(int(f.Fd()))
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}
