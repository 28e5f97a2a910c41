package mocks

import (
	"context"
	"sync"

	"github.com/aquadic/souq4u/domain"
)

// MockCredentialStore implements domain.CredentialStore interface for testing.
// Without overrides it behaves like an in-memory cookie.
type MockCredentialStore struct {
	GetFunc    func(ctx context.Context) (string, error)
	SetFunc    func(ctx context.Context, token string) error
	RemoveFunc func(ctx context.Context) error

	mu    sync.Mutex
	token string
}

// NewMockCredentialStore creates a store pre-filled with token; pass "" for empty
func NewMockCredentialStore(token string) *MockCredentialStore {
	return &MockCredentialStore{token: token}
}

// Get returns the stored token
func (m *MockCredentialStore) Get(ctx context.Context) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", domain.ErrCredentialNotFound
	}
	return m.token, nil
}

// Set stores the token
func (m *MockCredentialStore) Set(ctx context.Context, token string) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Remove deletes the token
func (m *MockCredentialStore) Remove(ctx context.Context) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// Token returns the raw stored value
func (m *MockCredentialStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Compile-time interface compliance verification
var _ domain.CredentialStore = (*MockCredentialStore)(nil)
