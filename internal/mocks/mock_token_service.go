package mocks

import (
	"fmt"
	"strings"
	"time"

	"github.com/aquadic/souq4u/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	GenerateFunc func(userID uint, role, sessionID string) (string, error)
	ValidateFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// Generate issues a bearer token for the user
func (m *MockTokenService) Generate(userID uint, role, sessionID string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(userID, role, sessionID)
	}
	// Default behavior: return a mock token
	return fmt.Sprintf("token_user_%d_%s_%s", userID, role, sessionID), nil
}

// Validate validates a bearer token
func (m *MockTokenService) Validate(token string) (*domain.TokenClaims, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	// Default behavior: accept tokens produced by Generate
	var (
		userID    uint
		role      string
		sessionID string
	)
	parts := strings.SplitN(strings.TrimPrefix(token, "token_user_"), "_", 3)
	if len(parts) != 3 || !strings.HasPrefix(token, "token_user_") {
		return nil, domain.ErrTokenInvalid
	}
	if _, err := fmt.Sscanf(parts[0], "%d", &userID); err != nil {
		return nil, domain.ErrTokenMalformed
	}
	role, sessionID = parts[1], parts[2]
	now := time.Now()
	return &domain.TokenClaims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
