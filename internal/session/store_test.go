package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
)

// failingStore returns err from every operation.
type failingStore struct{ err error }

func (f failingStore) Load(context.Context) (*oauth2.Token, error) { return nil, f.err }
func (f failingStore) Save(context.Context, *oauth2.Token) error    { return f.err }
func (f failingStore) Delete(context.Context) error                 { return f.err }

// countingProfile returns user for every call and records how often it was called and with which token.
type countingProfile struct {
	calls atomic.Int32
	mu    sync.Mutex
	seen  []string
	user  *models.User
	err   error
}

func (p *countingProfile) CurrentUser(_ context.Context, token string) (*models.User, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.seen = append(p.seen, token)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	u := *p.user
	return &u, nil
}

func persisted(token string) *MemoryStore {
	return NewMemoryStore(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

func assertEmpty(t *testing.T, stores ...*MemoryStore) {
	t.Helper()
	for i, s := range stores {
		_, err := s.Load(context.Background())
		assert.ErrorIs(t, err, ErrNoToken, "store %d still holds a token", i)
	}
}

func TestLoginLogout(t *testing.T) {
	alice := &models.User{ID: "u1", Username: "alice"}

	t.Run("login then read", func(t *testing.T) {
		long, cookie := NewMemoryStore(nil), NewMemoryStore(nil)
		s := Open(context.Background(), Options{Stores: []TokenStore{long, cookie}})

		require.NoError(t, s.Login("tok123", alice))

		assert.True(t, s.IsAuthenticated())
		assert.Equal(t, "tok123", s.Token())
		assert.Equal(t, Authenticated, s.State())
		assert.Equal(t, "alice", s.User().Username)

		for _, st := range []*MemoryStore{long, cookie} {
			tok, err := st.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "tok123", tok.AccessToken)
		}
	})

	t.Run("logout clears both stores", func(t *testing.T) {
		long, cookie := NewMemoryStore(nil), NewMemoryStore(nil)
		s := Open(context.Background(), Options{Stores: []TokenStore{long, cookie}})
		require.NoError(t, s.Login("tok123", alice))

		s.Logout()

		assert.False(t, s.IsAuthenticated())
		assert.Empty(t, s.Token())
		assert.Nil(t, s.User())
		assertEmpty(t, long, cookie)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		long := NewMemoryStore(nil)
		s := Open(context.Background(), Options{Stores: []TokenStore{long}})
		require.NoError(t, s.Login("tok123", alice))

		s.Logout()
		first := []any{s.IsAuthenticated(), s.Token(), s.User(), s.State()}
		s.Logout()
		second := []any{s.IsAuthenticated(), s.Token(), s.User(), s.State()}

		assert.Equal(t, first, second)
		assert.Equal(t, Anonymous, s.State())
		assertEmpty(t, long)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		s := Open(context.Background(), Options{})

		assert.ErrorIs(t, s.Login("", alice), shared.ErrInvalidInput)
		assert.ErrorIs(t, s.Login("tok", nil), shared.ErrInvalidInput)
		assert.ErrorIs(t, s.Login("tok", &models.User{Username: "noid"}), shared.ErrInvalidInput)
		assert.False(t, s.IsAuthenticated())
	})

	t.Run("storage failures do not block login", func(t *testing.T) {
		s := Open(context.Background(), Options{Stores: []TokenStore{failingStore{err: errors.New("disk full")}}})

		require.NoError(t, s.Login("tok", alice))
		assert.True(t, s.IsAuthenticated())

		s.Logout()
		assert.False(t, s.IsAuthenticated())
	})

	t.Run("user is copied", func(t *testing.T) {
		s := Open(context.Background(), Options{})
		u := &models.User{ID: "u1", Username: "alice"}
		require.NoError(t, s.Login("tok", u))

		u.Username = "mallory"
		s.User().Username = "eve"

		assert.Equal(t, "alice", s.User().Username)
	})
}

func TestBootstrap(t *testing.T) {
	alice := &models.User{ID: "u1", Username: "alice", ClipsCount: 4}

	t.Run("no persisted token", func(t *testing.T) {
		profile := &countingProfile{user: alice}
		s := New(Options{Stores: []TokenStore{NewMemoryStore(nil)}, Profile: profile})
		assert.True(t, s.Loading())
		assert.Equal(t, Booting, s.State())

		s.Bootstrap(context.Background())

		assert.False(t, s.Loading())
		assert.False(t, s.IsAuthenticated())
		assert.Equal(t, Anonymous, s.State())
		assert.Zero(t, profile.calls.Load(), "no network call without a token")
	})

	t.Run("valid token", func(t *testing.T) {
		profile := &countingProfile{user: alice}
		s := Open(context.Background(), Options{
			Stores:  []TokenStore{persisted("good"), NewMemoryStore(nil)},
			Profile: profile,
		})

		assert.False(t, s.Loading())
		assert.True(t, s.IsAuthenticated())
		assert.Equal(t, *alice, *s.User())
		assert.Equal(t, "good", s.Token())
		assert.Equal(t, []string{"good"}, profile.seen)
	})

	t.Run("rejected token", func(t *testing.T) {
		long, cookie := persisted("expired"), persisted("expired")
		profile := &countingProfile{err: shared.ErrUnauthorized}
		s := Open(context.Background(), Options{Stores: []TokenStore{long, cookie}, Profile: profile})

		assert.False(t, s.Loading())
		assert.False(t, s.IsAuthenticated())
		assert.Empty(t, s.Token())
		assertEmpty(t, long, cookie)
	})

	t.Run("network failure collapses to anonymous", func(t *testing.T) {
		long := persisted("good")
		profile := &countingProfile{err: shared.ErrServiceUnavailable}
		s := Open(context.Background(), Options{Stores: []TokenStore{long}, Profile: profile})

		assert.Equal(t, Anonymous, s.State())
		assertEmpty(t, long)
	})

	t.Run("empty profile collapses to anonymous", func(t *testing.T) {
		long := persisted("good")
		profile := &countingProfile{user: &models.User{}}
		s := Open(context.Background(), Options{Stores: []TokenStore{long}, Profile: profile})

		assert.Equal(t, Anonymous, s.State())
		assertEmpty(t, long)
	})

	t.Run("unreadable store collapses to anonymous", func(t *testing.T) {
		profile := &countingProfile{user: alice}
		s := Open(context.Background(), Options{
			Stores:  []TokenStore{failingStore{err: errors.New("corrupt")}},
			Profile: profile,
		})

		assert.Equal(t, Anonymous, s.State())
		assert.Zero(t, profile.calls.Load())
	})

	t.Run("timeout collapses to anonymous", func(t *testing.T) {
		long := persisted("slow")
		hung := ProfileFunc(func(ctx context.Context, _ string) (*models.User, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		s := New(Options{Stores: []TokenStore{long}, Profile: hung, BootstrapTimeout: 20 * time.Millisecond})

		done := make(chan struct{})
		go func() {
			s.Bootstrap(context.Background())
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("bootstrap did not honor its timeout")
		}

		assert.False(t, s.Loading())
		assert.False(t, s.IsAuthenticated())
		assertEmpty(t, long)
	})

	t.Run("runs once", func(t *testing.T) {
		profile := &countingProfile{user: alice}
		s := New(Options{Stores: []TokenStore{persisted("good")}, Profile: profile})

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Bootstrap(context.Background())
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), profile.calls.Load())
		assert.True(t, s.IsAuthenticated())
		assert.False(t, s.Loading())
	})

	t.Run("login during bootstrap wins", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		slow := ProfileFunc(func(ctx context.Context, _ string) (*models.User, error) {
			close(started)
			<-release
			return nil, shared.ErrUnauthorized
		})
		long := persisted("stale")
		s := New(Options{Stores: []TokenStore{long}, Profile: slow})

		go s.Bootstrap(context.Background())
		<-started

		require.NoError(t, s.Login("fresh", &models.User{ID: "u2", Username: "bob"}))
		close(release)
		s.Bootstrap(context.Background())

		assert.True(t, s.IsAuthenticated())
		assert.Equal(t, "fresh", s.Token())
		assert.False(t, s.Loading())

		tok, err := long.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh", tok.AccessToken)
	})

	t.Run("logout during bootstrap wins", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		slow := ProfileFunc(func(ctx context.Context, _ string) (*models.User, error) {
			close(started)
			<-release
			return alice, nil
		})
		s := New(Options{Stores: []TokenStore{persisted("good")}, Profile: slow})

		go s.Bootstrap(context.Background())
		<-started
		s.Logout()
		close(release)
		s.Bootstrap(context.Background())

		assert.False(t, s.IsAuthenticated())
		assert.Equal(t, Anonymous, s.State())
	})
}

func TestRefresh(t *testing.T) {
	alice := &models.User{ID: "u1", Username: "alice"}

	t.Run("requires a session", func(t *testing.T) {
		s := Open(context.Background(), Options{Profile: &countingProfile{user: alice}})
		_, err := s.Refresh(context.Background())
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("updates the user", func(t *testing.T) {
		profile := &countingProfile{user: &models.User{ID: "u1", Username: "alice", ClipsCount: 9}}
		s := Open(context.Background(), Options{Profile: profile})
		require.NoError(t, s.Login("tok", alice))

		got, err := s.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 9, got.ClipsCount)
		assert.Equal(t, 9, s.User().ClipsCount)
	})

	t.Run("stores a copy of the fetched user", func(t *testing.T) {
		fetched := &models.User{ID: "u1", Username: "alice"}
		profile := ProfileFunc(func(context.Context, string) (*models.User, error) { return fetched, nil })
		s := Open(context.Background(), Options{Profile: profile})
		require.NoError(t, s.Login("tok", alice))

		_, err := s.Refresh(context.Background())
		require.NoError(t, err)

		fetched.Username = "mallory"
		assert.Equal(t, "alice", s.User().Username)
	})

	t.Run("auth failure logs out", func(t *testing.T) {
		long := NewMemoryStore(nil)
		profile := &countingProfile{err: shared.ErrUnauthorized}
		s := Open(context.Background(), Options{Stores: []TokenStore{long}, Profile: profile})
		require.NoError(t, s.Login("tok", alice))

		_, err := s.Refresh(context.Background())
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		assert.False(t, s.IsAuthenticated())
		assertEmpty(t, long)
	})

	t.Run("network failure keeps the session", func(t *testing.T) {
		profile := &countingProfile{err: shared.ErrServiceUnavailable}
		s := Open(context.Background(), Options{Profile: profile})
		require.NoError(t, s.Login("tok", alice))

		_, err := s.Refresh(context.Background())
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.True(t, s.IsAuthenticated())
	})
}

func TestHandleAuthFailure(t *testing.T) {
	s := Open(context.Background(), Options{})
	require.NoError(t, s.Login("tok", &models.User{ID: "u1"}))

	assert.False(t, s.HandleAuthFailure(shared.ErrNotFound))
	assert.True(t, s.IsAuthenticated())

	assert.True(t, s.HandleAuthFailure(errors.Join(errors.New("GET /api/clips"), shared.ErrUnauthorized)))
	assert.False(t, s.IsAuthenticated())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "booting", Booting.String())
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "authenticated", Authenticated.String())
}
