package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/clipx/internal/session"
	"github.com/desertthunder/clipx/internal/shared"
)

const (
	// DefaultCookieTTL is how long a saved token stays readable.
	DefaultCookieTTL = 7 * 24 * time.Hour

	// TokenCookie is the cookie name the session token is stored under.
	TokenCookie = "token"
)

// ErrCookieNotFound is returned when a cookie is missing or expired.
var ErrCookieNotFound = errors.New("cookie not found")

// Cookie is a named value with an expiry.
type Cookie struct {
	Name      string
	Value     string
	TokenType string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the cookie has lapsed at t.
func (c Cookie) Expired(t time.Time) bool {
	return !t.Before(c.ExpiresAt)
}

// CookieRepository persists [Cookie] rows in the cookies table.
type CookieRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ session.TokenStore = (*CookieRepository)(nil)

// NewCookieRepository creates a [CookieRepository] whose token expires after ttl.
// A non-positive ttl uses [DefaultCookieTTL].
func NewCookieRepository(db *sql.DB, ttl time.Duration) *CookieRepository {
	if ttl <= 0 {
		ttl = DefaultCookieTTL
	}
	return &CookieRepository{db: db, ttl: ttl, now: time.Now}
}

// timestamp normalizes t so stored values compare correctly as text.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Set inserts or replaces the cookie name, expiring ttl from now.
func (r *CookieRepository) Set(ctx context.Context, name, value, tokenType string, ttl time.Duration) error {
	if name == "" || value == "" {
		return fmt.Errorf("%w: cookie name and value are required", shared.ErrInvalidInput)
	}
	if tokenType == "" {
		tokenType = "Bearer"
	}

	now := timestamp(r.now())
	expires := timestamp(now.Add(ttl))

	query := `
		INSERT INTO cookies (name, value, token_type, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, name, value, tokenType, expires, now, now); err != nil {
		return fmt.Errorf("failed to save cookie %s: %w", name, err)
	}
	return nil
}

// Get returns the cookie name, or [ErrCookieNotFound] when it is missing or expired.
// An expired cookie is deleted by the read that finds it.
func (r *CookieRepository) Get(ctx context.Context, name string) (*Cookie, error) {
	query := `
		SELECT name, value, token_type, expires_at, created_at, updated_at
		FROM cookies
		WHERE name = ?
	`

	var c Cookie
	err := r.db.QueryRowContext(ctx, query, name).Scan(&c.Name, &c.Value, &c.TokenType, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCookieNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cookie %s: %w", name, err)
	}

	if c.Expired(r.now()) {
		if err := r.Remove(ctx, name); err != nil {
			return nil, err
		}
		return nil, ErrCookieNotFound
	}
	return &c, nil
}

// Remove deletes the cookie name. Removing a missing cookie is not an error.
func (r *CookieRepository) Remove(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cookies WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete cookie %s: %w", name, err)
	}
	return nil
}

// PurgeExpired deletes every expired cookie and returns how many were removed.
func (r *CookieRepository) PurgeExpired(ctx context.Context) (int64, error) {
	var n int64
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM cookies WHERE expires_at <= ?", timestamp(r.now()))
		if err != nil {
			return fmt.Errorf("failed to purge cookies: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// List returns every cookie, expired or not, ordered by name.
func (r *CookieRepository) List(ctx context.Context) ([]Cookie, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, value, token_type, expires_at, created_at, updated_at
		FROM cookies
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []Cookie
	for rows.Next() {
		var c Cookie
		if err := rows.Scan(&c.Name, &c.Value, &c.TokenType, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// Save stores tok as the token cookie, expiring after the repository's TTL.
func (r *CookieRepository) Save(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}
	return r.Set(ctx, TokenCookie, tok.AccessToken, tok.TokenType, r.ttl)
}

// Load returns the token cookie as an [oauth2.Token] carrying its expiry, or [session.ErrNoToken].
func (r *CookieRepository) Load(ctx context.Context) (*oauth2.Token, error) {
	c, err := r.Get(ctx, TokenCookie)
	if errors.Is(err, ErrCookieNotFound) {
		return nil, session.ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: c.Value, TokenType: c.TokenType, Expiry: c.ExpiresAt}, nil
}

// Delete removes the token cookie.
func (r *CookieRepository) Delete(ctx context.Context) error {
	return r.Remove(ctx, TokenCookie)
}
