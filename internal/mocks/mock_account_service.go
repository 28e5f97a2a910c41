package mocks

import (
	"context"

	"github.com/aquadic/souq4u/domain"
)

// MockAccountService implements domain.AccountService interface for testing
type MockAccountService struct {
	LoginFunc       func(ctx context.Context, phone, phoneCountry string) (*domain.LoginResult, error)
	ResendFunc      func(ctx context.Context, phone, phoneCountry string) (*domain.ResendResult, error)
	CheckFunc       func(ctx context.Context, phone, reference string) (*domain.OTPCheckResult, error)
	ConfirmFunc     func(ctx context.Context, reference, code string) error
	CurrentUserFunc func(ctx context.Context, claims *domain.TokenClaims) (*domain.User, error)
	LogoutFunc      func(ctx context.Context, claims *domain.TokenClaims) error
	LogoutAllFunc   func(ctx context.Context, claims *domain.TokenClaims) (int, error)
}

// NewMockAccountService creates a new MockAccountService with default behaviors
func NewMockAccountService() *MockAccountService {
	return &MockAccountService{}
}

// Login starts a login
func (m *MockAccountService) Login(ctx context.Context, phone, phoneCountry string) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, phone, phoneCountry)
	}
	return &domain.LoginResult{Token: "mock_token", User: &domain.User{ID: 1, Phone: phone, PhoneCountry: phoneCountry}}, nil
}

// Resend starts a verification
func (m *MockAccountService) Resend(ctx context.Context, phone, phoneCountry string) (*domain.ResendResult, error) {
	if m.ResendFunc != nil {
		return m.ResendFunc(ctx, phone, phoneCountry)
	}
	return &domain.ResendResult{Message: "Verification code sent", OTPCallback: &domain.OTPCallback{Reference: "mock_ref", Phone: phone}}, nil
}

// Check reports the verification state
func (m *MockAccountService) Check(ctx context.Context, phone, reference string) (*domain.OTPCheckResult, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, phone, reference)
	}
	// Default behavior: still pending
	return nil, domain.ErrVerificationPending
}

// Confirm accepts a code
func (m *MockAccountService) Confirm(ctx context.Context, reference, code string) error {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, reference, code)
	}
	return nil
}

// CurrentUser returns the user behind claims
func (m *MockAccountService) CurrentUser(ctx context.Context, claims *domain.TokenClaims) (*domain.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, claims)
	}
	return &domain.User{ID: claims.UserID, IsActive: true}, nil
}

// Logout revokes the session behind claims
func (m *MockAccountService) Logout(ctx context.Context, claims *domain.TokenClaims) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, claims)
	}
	return nil
}

// LogoutAll revokes every session of the claims' user
func (m *MockAccountService) LogoutAll(ctx context.Context, claims *domain.TokenClaims) (int, error) {
	if m.LogoutAllFunc != nil {
		return m.LogoutAllFunc(ctx, claims)
	}
	return 1, nil
}

// Compile-time interface compliance verification
var _ domain.AccountService = (*MockAccountService)(nil)
