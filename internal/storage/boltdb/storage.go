// Package boltdb persists the session token in a bbolt file with no expiry.
package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"golang.org/x/oauth2"

	"github.com/desertthunder/clipx/internal/session"
	"github.com/desertthunder/clipx/internal/shared"
)

var (
	bucketSession = []byte("session")
	tokenKey      = []byte("token")
)

// Storage is a [session.TokenStore] backed by bbolt.
type Storage struct {
	db *bbolt.DB
}

var _ session.TokenStore = (*Storage)(nil)

// New opens (or creates) the bbolt file at dbPath, creating parent directories as needed.
func New(dbPath string) (*Storage, error) {
	if err := shared.EnsureDir(dbPath); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}
	return s, nil
}

// Close closes the database file.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the database file.
func (s *Storage) Path() string {
	return s.db.Path()
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSession); err != nil {
			return fmt.Errorf("failed to create session bucket: %w", err)
		}
		return nil
	})
}

// Save stores tok under the session bucket, replacing any previous token.
func (s *Storage) Save(_ context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		data, err := json.Marshal(tok)
		if err != nil {
			return fmt.Errorf("failed to marshal token: %w", err)
		}
		if err := bucket.Put(tokenKey, data); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		return nil
	})
}

// Load returns the stored token or [session.ErrNoToken].
func (s *Storage) Load(_ context.Context) (*oauth2.Token, error) {
	var tok *oauth2.Token

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		data := bucket.Get(tokenKey)
		if data == nil {
			return session.ErrNoToken
		}

		tok = &oauth2.Token{}
		if err := json.Unmarshal(data, tok); err != nil {
			return fmt.Errorf("failed to unmarshal token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Delete removes the stored token. It is a no-op when nothing is stored.
func (s *Storage) Delete(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}
		if err := bucket.Delete(tokenKey); err != nil {
			return fmt.Errorf("failed to delete token: %w", err)
		}
		return nil
	})
}
