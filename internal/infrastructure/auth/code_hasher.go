package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/aquadic/souq4u/domain"
)

// BcryptCodeHasher implements domain.CodeHasher. Verification codes are
// short, so they are never stored in clear even for the few minutes they live.
type BcryptCodeHasher struct {
	cost int
}

// NewCodeHasher creates a bcrypt hasher with the given cost; zero uses the default
func NewCodeHasher(cost int) *BcryptCodeHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptCodeHasher{cost: cost}
}

var _ domain.CodeHasher = (*BcryptCodeHasher)(nil)

// Hash implements domain.CodeHasher
func (h *BcryptCodeHasher) Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify implements domain.CodeHasher
func (h *BcryptCodeHasher) Verify(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
