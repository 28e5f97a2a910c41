package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/aquadic/souq4u/domain"
)

var bucketName = []byte("credentials")

// BoltStore persists the token cookie in a BBolt file so it survives
// process restarts, the CLI counterpart of the browser cookie.
type BoltStore struct {
	db     *bbolt.DB
	policy Policy
	now    func() time.Time
}

var _ domain.CredentialStore = (*BoltStore)(nil)

// NewBoltStore returns a store backed by the given BBolt database
func NewBoltStore(db *bbolt.DB, policy Policy) *BoltStore {
	return &BoltStore{db: db, policy: policy, now: time.Now}
}

// OpenBoltStore opens (creating if needed) the database at path
func OpenBoltStore(path string, policy Policy) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating credential dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewBoltStore(db, policy), nil
}

// Close closes the underlying BBolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get implements domain.CredentialStore
func (s *BoltStore) Get(ctx context.Context) (string, error) {
	var stored StoredCookie
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(s.policy.Name))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &stored)
	})
	if err != nil {
		return "", fmt.Errorf("reading credential: %w", err)
	}
	if !found || stored.Value == "" {
		return "", domain.ErrCredentialNotFound
	}
	if stored.expired(s.now()) {
		_ = s.Remove(ctx)
		return "", domain.ErrCredentialNotFound
	}
	return stored.Value, nil
}

// Set implements domain.CredentialStore
func (s *BoltStore) Set(ctx context.Context, token string) error {
	data, err := json.Marshal(fromCookie(s.policy.Cookie(token, s.now())))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put([]byte(s.policy.Name), data)
	})
}

// Remove implements domain.CredentialStore
func (s *BoltStore) Remove(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(s.policy.Name))
	})
}
