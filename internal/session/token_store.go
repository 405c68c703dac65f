package session

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by [TokenStore.Load] when nothing is persisted.
var ErrNoToken = errors.New("no persisted token")

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	// Load returns the persisted token or [ErrNoToken].
	Load(ctx context.Context) (*oauth2.Token, error)
	// Save replaces the persisted token.
	Save(ctx context.Context, tok *oauth2.Token) error
	// Delete removes the persisted token. Deleting an absent token is not an error.
	Delete(ctx context.Context) error
}

// MemoryStore is a [TokenStore] that lives only as long as the process.
type MemoryStore struct {
	mu  sync.Mutex
	tok *oauth2.Token
}

func NewMemoryStore(tok *oauth2.Token) *MemoryStore {
	return &MemoryStore{tok: tok}
}

func (m *MemoryStore) Load(context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil {
		return nil, ErrNoToken
	}
	t := *m.tok
	return &t, nil
}

func (m *MemoryStore) Save(_ context.Context, tok *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *tok
	m.tok = &t
	return nil
}

func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	return nil
}
