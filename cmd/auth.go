package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/clipx/internal/formatter"
	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/repositories"
	"github.com/desertthunder/clipx/internal/shared"
	"github.com/desertthunder/clipx/internal/validation"
)

// AuthLogin exchanges email and password for a token and starts a session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	var err error
	if email == "" {
		if email, err = r.prompt("Email: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = r.promptPassword("Password: "); err != nil {
			return err
		}
	}

	if err := validation.ValidateLogin(email, password); err != nil {
		return err
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	r.logger.Info("logging in", "email", email)
	res, err := r.client.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return r.startSession(res)
}

// AuthRegister creates an account and starts a session for it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	email := cmd.String("email")
	password := cmd.String("password")
	confirm := password

	var err error
	if password == "" {
		if password, err = r.promptPassword("Password: "); err != nil {
			return err
		}
		if confirm, err = r.promptPassword("Confirm password: "); err != nil {
			return err
		}
	}

	if err := validation.ValidateRegistration(username, email, password, confirm); err != nil {
		return err
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	r.logger.Info("registering", "username", username, "email", email)
	res, err := r.client.Register(ctx, models.Registration{Username: username, Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	return r.startSession(res)
}

func (r *Runner) startSession(res *models.AuthResult) error {
	if err := r.session.Login(res.Token, res.User); err != nil {
		return err
	}
	r.logger.Info("session started", "user", res.User.Username)
	return r.writePlain("✓ Logged in as @%s\n", res.User.Username)
}

// AuthLogout clears the session from memory and both stores.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	user := r.session.User()
	r.session.Logout()

	if user == nil {
		return r.writePlain("Not logged in\n")
	}
	return r.writePlain("✓ Logged out @%s\n", user.Username)
}

// tokenInfo is what the client can read from a token without verifying it.
type tokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// parseTokenClaims decodes the token's claims without checking the signature.
//
// The subject is the standard "sub" claim, falling back to "id" or a nested "user.id".
func parseTokenClaims(token string) (*tokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: token is not a JWT: %v", shared.ErrInvalidInput, err)
	}

	info := &tokenInfo{}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		info.Subject = sub
	} else if id, ok := claims["id"].(string); ok {
		info.Subject = id
	} else if user, ok := claims["user"].(map[string]any); ok {
		if id, ok := user["id"].(string); ok {
			info.Subject = id
		}
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}

// AuthStatus reports the session state, the cookie store's expiry and the token's claims.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	now := r.now()

	r.writePlainHeader("Session")
	r.writePlain("API:     %s\n", r.client.BaseURL())
	r.writePlain("State:   %s\n", r.session.State())

	user := r.session.User()
	if user == nil {
		r.writePlain("User:    not logged in\n")
		return nil
	}
	r.writePlain("User:    @%s (%s)\n", user.Username, user.ID)

	cookie, err := r.cookies.Get(ctx, repositories.TokenCookie)
	switch {
	case errors.Is(err, repositories.ErrCookieNotFound):
		r.writePlain("Cookie:  missing\n")
	case err != nil:
		r.logger.Warn("failed to read cookie", "error", err)
		r.writePlain("Cookie:  unreadable\n")
	default:
		r.writePlain("Cookie:  expires %s (in %s)\n", cookie.ExpiresAt.Local().Format(time.RFC1123), cookie.ExpiresAt.Sub(now).Round(time.Minute))
	}

	info, err := parseTokenClaims(r.session.Token())
	if err != nil {
		r.logger.Debug("token claims unavailable", "error", err)
		r.writePlain("Token:   opaque\n")
		return nil
	}
	if info.Subject != "" {
		r.writePlain("Subject: %s\n", info.Subject)
	}
	if !info.IssuedAt.IsZero() {
		r.writePlain("Issued:  %s\n", formatter.RelativeTime(info.IssuedAt, now))
	}
	switch {
	case info.ExpiresAt.IsZero():
		r.writePlain("Expires: never\n")
	case !now.Before(info.ExpiresAt):
		r.writePlain("Expires: expired %s\n", info.ExpiresAt.Local().Format(time.RFC1123))
	default:
		r.writePlain("Expires: %s\n", info.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

// AuthWhoami prints the current user, optionally revalidating the session first.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	user := r.session.User()
	if cmd.Bool("refresh") {
		refreshed, err := r.session.Refresh(ctx)
		if err != nil {
			if errors.Is(err, shared.ErrUnauthorized) {
				return fmt.Errorf("%w (session cleared, run `clipx auth login` again)", err)
			}
			return fmt.Errorf("failed to refresh session: %w", err)
		}
		user = refreshed
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlain("@%s\n", user.Username)
	if user.Email != "" {
		r.writePlain("%s\n", user.Email)
	}
	r.writePlain("id: %s\n", user.ID)
	return nil
}
