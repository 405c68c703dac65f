package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/session"
	"github.com/desertthunder/clipx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// clock returns a repository whose notion of "now" is controlled by the returned pointer.
func clock(db *sql.DB, ttl time.Duration) (*CookieRepository, *time.Time) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewCookieRepository(db, ttl)
	repo.now = func() time.Time { return now }
	return repo, &now
}

func TestCookieRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Set And Get", func(t *testing.T) {
		repo, now := clock(setupTestDB(t), 0)

		if err := repo.Set(ctx, "theme", "dark", "", time.Hour); err != nil {
			t.Fatalf("failed to set cookie: %v", err)
		}

		c, err := repo.Get(ctx, "theme")
		if err != nil {
			t.Fatalf("failed to get cookie: %v", err)
		}
		if c.Value != "dark" || c.TokenType != "Bearer" {
			t.Errorf("unexpected cookie: %+v", c)
		}
		if want := now.Add(time.Hour); !c.ExpiresAt.Equal(want) {
			t.Errorf("expected expiry %v, got %v", want, c.ExpiresAt)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		repo, _ := clock(setupTestDB(t), 0)

		_ = repo.Set(ctx, "theme", "dark", "", time.Hour)
		if err := repo.Set(ctx, "theme", "light", "", time.Hour); err != nil {
			t.Fatalf("failed to overwrite cookie: %v", err)
		}

		cookies, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list cookies: %v", err)
		}
		if len(cookies) != 1 || cookies[0].Value != "light" {
			t.Errorf("expected one overwritten cookie, got %+v", cookies)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		repo, _ := clock(setupTestDB(t), 0)
		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ErrCookieNotFound) {
			t.Errorf("expected ErrCookieNotFound, got %v", err)
		}
	})

	t.Run("Expired Reads As Absent", func(t *testing.T) {
		db := setupTestDB(t)
		repo, now := clock(db, 0)

		_ = repo.Set(ctx, "theme", "dark", "", time.Minute)
		*now = now.Add(time.Minute)

		if _, err := repo.Get(ctx, "theme"); !errors.Is(err, ErrCookieNotFound) {
			t.Fatalf("expected expired cookie to be absent, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM cookies").Scan(&count); err != nil {
			t.Fatalf("failed to count cookies: %v", err)
		}
		if count != 0 {
			t.Errorf("expected expired cookie to be deleted, %d rows remain", count)
		}
	})

	t.Run("Purge Expired", func(t *testing.T) {
		repo, now := clock(setupTestDB(t), 0)

		_ = repo.Set(ctx, "a", "1", "", time.Minute)
		_ = repo.Set(ctx, "b", "2", "", time.Hour)
		*now = now.Add(2 * time.Minute)

		n, err := repo.PurgeExpired(ctx)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 purged cookie, got %d", n)
		}
		if _, err := repo.Get(ctx, "b"); err != nil {
			t.Errorf("expected b to survive, got %v", err)
		}
	})

	t.Run("Remove Is Idempotent", func(t *testing.T) {
		repo, _ := clock(setupTestDB(t), 0)
		_ = repo.Set(ctx, "a", "1", "", time.Hour)

		if err := repo.Remove(ctx, "a"); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}
		if err := repo.Remove(ctx, "a"); err != nil {
			t.Errorf("second remove should succeed, got %v", err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		repo, _ := clock(setupTestDB(t), 0)
		if err := repo.Set(ctx, "", "v", "", time.Hour); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty name, got %v", err)
		}
		if err := repo.Set(ctx, "n", "", "", time.Hour); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty value, got %v", err)
		}
	})
}

func TestCookieTokenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Token Expires After Seven Days", func(t *testing.T) {
		repo, now := clock(setupTestDB(t), 0)

		if err := repo.Save(ctx, &oauth2.Token{AccessToken: "tok123", TokenType: "Bearer"}); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		tok, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if tok.AccessToken != "tok123" {
			t.Errorf("expected tok123, got %s", tok.AccessToken)
		}
		if want := now.Add(DefaultCookieTTL); !tok.Expiry.Equal(want) {
			t.Errorf("expected expiry %v, got %v", want, tok.Expiry)
		}

		*now = now.Add(DefaultCookieTTL - time.Second)
		if _, err := repo.Load(ctx); err != nil {
			t.Errorf("token should still be valid one second before expiry, got %v", err)
		}

		*now = now.Add(time.Second)
		if _, err := repo.Load(ctx); !errors.Is(err, session.ErrNoToken) {
			t.Errorf("expected ErrNoToken after expiry, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo, _ := clock(setupTestDB(t), time.Hour)

		_ = repo.Save(ctx, &oauth2.Token{AccessToken: "tok"})
		if err := repo.Delete(ctx); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Load(ctx); !errors.Is(err, session.ErrNoToken) {
			t.Errorf("expected ErrNoToken, got %v", err)
		}
		if err := repo.Delete(ctx); err != nil {
			t.Errorf("delete should be idempotent, got %v", err)
		}
	})

	t.Run("With Session", func(t *testing.T) {
		long := session.NewMemoryStore(nil)
		repo, _ := clock(setupTestDB(t), 0)

		s := session.Open(ctx, session.Options{Stores: []session.TokenStore{long, repo}})
		if err := s.Login("tok123", &models.User{ID: "u1", Username: "alice"}); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		tok, err := repo.Load(ctx)
		if err != nil || tok.AccessToken != "tok123" {
			t.Fatalf("expected cookie token tok123, got %v, %v", tok, err)
		}

		s.Logout()
		if _, err := repo.Load(ctx); !errors.Is(err, session.ErrNoToken) {
			t.Errorf("expected cookie cleared after logout, got %v", err)
		}
	})
}
