package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/aquadic/souq4u/domain"
)

// MemoryStore keeps the token cookie in process memory
type MemoryStore struct {
	policy Policy
	now    func() time.Time
	mu     sync.Mutex
	cookie *StoredCookie
}

var _ domain.CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{policy: policy, now: time.Now}
}

// Get implements domain.CredentialStore
func (s *MemoryStore) Get(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cookie == nil || s.cookie.expired(s.now()) {
		s.cookie = nil
		return "", domain.ErrCredentialNotFound
	}
	return s.cookie.Value, nil
}

// Set implements domain.CredentialStore
func (s *MemoryStore) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookie = fromCookie(s.policy.Cookie(token, s.now()))
	return nil
}

// Remove implements domain.CredentialStore
func (s *MemoryStore) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookie = nil
	return nil
}

// Cookie returns the stored cookie record, if any
func (s *MemoryStore) Cookie() (StoredCookie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cookie == nil {
		return StoredCookie{}, false
	}
	return *s.cookie, true
}
