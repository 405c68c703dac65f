package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
)

// DefaultBootstrapTimeout bounds the profile fetch when [Options.BootstrapTimeout] is not set.
const DefaultBootstrapTimeout = 10 * time.Second

// State is the coarse lifecycle position of a [Store].
type State int

const (
	Booting State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Booting:
		return "booting"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ProfileFetcher fetches the profile that belongs to token.
//
// Implementations must send token as the request credential regardless of the session's current token.
type ProfileFetcher interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// ProfileFunc adapts a function to [ProfileFetcher].
type ProfileFunc func(ctx context.Context, token string) (*models.User, error)

func (f ProfileFunc) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	return f(ctx, token)
}

// Options configures a [Store].
type Options struct {
	// Stores persist the token. Bootstrap reads the first one; login and logout write and clear all of them.
	Stores           []TokenStore
	Profile          ProfileFetcher
	BootstrapTimeout time.Duration
	Logger           *log.Logger
}

// Store is the process-wide record of who is logged in.
//
// token and user are always set and cleared together, and the persisted token is written in the same
// critical section, so the credential sent by the API client never disagrees with the current user.
type Store struct {
	mu      sync.RWMutex
	token   string
	user    *models.User
	loading bool
	// gen is bumped by every explicit login/logout so a slower bootstrap cannot overwrite them.
	gen uint64

	once sync.Once

	stores  []TokenStore
	profile ProfileFetcher
	timeout time.Duration
	logger  *log.Logger
}

// New creates a store in the Booting state. Call [Store.Bootstrap] to resolve it.
func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.BootstrapTimeout <= 0 {
		opts.BootstrapTimeout = DefaultBootstrapTimeout
	}
	return &Store{
		loading: true,
		stores:  opts.Stores,
		profile: opts.Profile,
		timeout: opts.BootstrapTimeout,
		logger:  shared.WithLogger(opts.Logger, "component", "session"),
	}
}

// Open creates a store and bootstraps it before returning.
func Open(ctx context.Context, opts Options) *Store {
	s := New(opts)
	s.Bootstrap(ctx)
	return s
}

// Bootstrap restores the session from the first token store.
//
// It runs once per store; later calls block until the first one has resolved. Every failure, including a
// timeout of the profile fetch, leaves the session anonymous and removes the persisted token.
func (s *Store) Bootstrap(ctx context.Context) {
	s.once.Do(func() {
		s.bootstrap(ctx)
	})
}

func (s *Store) bootstrap(ctx context.Context) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	tok, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			s.logger.Debug("could not read persisted token", "error", err)
			s.resolve(gen, "", nil, true)
			return
		}
		s.logger.Debug("no persisted token")
		s.resolve(gen, "", nil, false)
		return
	}

	if s.profile == nil {
		s.logger.Debug("no profile fetcher configured")
		s.resolve(gen, "", nil, true)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.profile.CurrentUser(fetchCtx, tok.AccessToken)
	switch {
	case err != nil:
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		s.logger.Debug("persisted token rejected", "error", err)
		s.resolve(gen, "", nil, true)
	case user == nil || user.ID == "":
		s.logger.Debug("persisted token rejected", "error", shared.ErrMalformedResponse)
		s.resolve(gen, "", nil, true)
	default:
		s.logger.Debug("session restored", "user", user.Username)
		s.resolve(gen, tok.AccessToken, user, false)
	}
}

// resolve ends the Booting state. The outcome is dropped when a login or logout happened meanwhile.
func (s *Store) resolve(gen uint64, token string, user *models.User, purge bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	if s.gen != gen {
		s.logger.Debug("discarding bootstrap result superseded by an explicit login or logout")
		return
	}

	s.token, s.user = token, user
	if purge {
		s.deleteAll()
	}
}

// load reads the token from the first store.
func (s *Store) load(ctx context.Context) (*oauth2.Token, error) {
	if len(s.stores) == 0 {
		return nil, ErrNoToken
	}
	tok, err := s.stores[0].Load(ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrNoToken
	}
	return tok, nil
}

// Login adopts token and user as the current session and persists the token to every store.
//
// Storage failures are logged; the in-memory session is still updated.
func (s *Store) Login(token string, user *models.User) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}
	if user == nil || user.ID == "" {
		return fmt.Errorf("%w: user without an id", shared.ErrInvalidInput)
	}

	u := *user

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.token, s.user = token, &u

	tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	for _, ts := range s.stores {
		if err := ts.Save(context.Background(), tok); err != nil {
			s.logger.Warn("failed to persist token", "error", err)
		}
	}
	s.logger.Debug("logged in", "user", u.Username)
	return nil
}

// Logout clears the session and removes the token from every store. Calling it again is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.token, s.user = "", nil
	s.deleteAll()
}

// deleteAll must be called with mu held.
func (s *Store) deleteAll() {
	for _, ts := range s.stores {
		if err := ts.Delete(context.Background()); err != nil {
			s.logger.Warn("failed to remove persisted token", "error", err)
		}
	}
}

// IsAuthenticated reports whether a user is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Loading reports whether bootstrap has not resolved yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// State returns the lifecycle position of the session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.user != nil:
		return Authenticated
	case s.loading:
		return Booting
	default:
		return Anonymous
	}
}

// User returns a copy of the current user, or nil when anonymous.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the credential outgoing requests should carry, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Refresh re-fetches the profile for the current token.
//
// An auth failure logs the session out. Any other failure leaves the session intact and is returned.
func (s *Store) Refresh(ctx context.Context) (*models.User, error) {
	s.mu.RLock()
	token, gen := s.token, s.gen
	s.mu.RUnlock()

	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	if s.profile == nil {
		return nil, fmt.Errorf("%w: no profile fetcher", shared.ErrNotImplemented)
	}

	user, err := s.profile.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			s.logoutIf(gen)
		}
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, shared.ErrMalformedResponse
	}

	stored := *user
	s.mu.Lock()
	if s.gen == gen {
		s.user = &stored
	}
	s.mu.Unlock()

	u := *user
	return &u, nil
}

// HandleAuthFailure logs the session out when err is an auth failure observed by another part of the app.
// It reports whether the session was cleared.
func (s *Store) HandleAuthFailure(err error) bool {
	if !errors.Is(err, shared.ErrUnauthorized) {
		return false
	}
	s.logger.Debug("credential rejected by the API, logging out", "error", err)
	s.Logout()
	return true
}

func (s *Store) logoutIf(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.gen++
	s.token, s.user = "", nil
	s.deleteAll()
}
