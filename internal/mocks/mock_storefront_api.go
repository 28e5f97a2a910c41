package mocks

import (
	"context"
	"sync"

	"github.com/aquadic/souq4u/domain"
)

// CheckOTPCall records the arguments of one CheckOTP call
type CheckOTPCall struct {
	Phone        string
	Token        string
	PhoneCountry string
	Reference    string
}

// MockStorefrontAPI implements domain.StorefrontAPI interface for testing.
// Calls are counted so tests can assert on what reached the network.
type MockStorefrontAPI struct {
	PostLoginFunc          func(ctx context.Context, phone, phoneCountry string) (*domain.LoginResult, error)
	ResendVerificationFunc func(ctx context.Context, phone, token, phoneCountry string) (*domain.ResendResult, error)
	CheckOTPFunc           func(ctx context.Context, phone, token, phoneCountry, reference string) (*domain.OTPCheckResult, error)
	CurrentUserFunc        func(ctx context.Context, token string) (*domain.User, error)
	LogoutFunc             func(ctx context.Context, token string) error

	mu               sync.Mutex
	loginCalls       int
	resendCalls      int
	checkCalls       []CheckOTPCall
	currentUserCalls int
	logoutCalls      int
}

// NewMockStorefrontAPI creates a new MockStorefrontAPI with default behaviors
func NewMockStorefrontAPI() *MockStorefrontAPI {
	return &MockStorefrontAPI{}
}

// PostLogin starts a login
func (m *MockStorefrontAPI) PostLogin(ctx context.Context, phone, phoneCountry string) (*domain.LoginResult, error) {
	m.mu.Lock()
	m.loginCalls++
	m.mu.Unlock()

	if m.PostLoginFunc != nil {
		return m.PostLoginFunc(ctx, phone, phoneCountry)
	}
	// Default behavior: issue a fixed token
	return &domain.LoginResult{Token: "mock_token"}, nil
}

// ResendVerification requests a verification code
func (m *MockStorefrontAPI) ResendVerification(ctx context.Context, phone, token, phoneCountry string) (*domain.ResendResult, error) {
	m.mu.Lock()
	m.resendCalls++
	m.mu.Unlock()

	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, phone, token, phoneCountry)
	}
	// Default behavior: fixed reference
	return &domain.ResendResult{OTPCallback: &domain.OTPCallback{Reference: "mock_ref", Phone: phone}}, nil
}

// CheckOTP polls the verification status
func (m *MockStorefrontAPI) CheckOTP(ctx context.Context, phone, token, phoneCountry, reference string) (*domain.OTPCheckResult, error) {
	m.mu.Lock()
	m.checkCalls = append(m.checkCalls, CheckOTPCall{Phone: phone, Token: token, PhoneCountry: phoneCountry, Reference: reference})
	m.mu.Unlock()

	if m.CheckOTPFunc != nil {
		return m.CheckOTPFunc(ctx, phone, token, phoneCountry, reference)
	}
	// Default behavior: not verified yet
	return &domain.OTPCheckResult{}, nil
}

// CurrentUser fetches the user behind token
func (m *MockStorefrontAPI) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	m.currentUserCalls++
	m.mu.Unlock()

	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, token)
	}
	// Default behavior: unauthorized
	return nil, domain.ErrUnauthorized
}

// Logout revokes token remotely
func (m *MockStorefrontAPI) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	m.logoutCalls++
	m.mu.Unlock()

	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	// Default behavior: success
	return nil
}

// LoginCalls returns how many times PostLogin was called
func (m *MockStorefrontAPI) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

// ResendCalls returns how many times ResendVerification was called
func (m *MockStorefrontAPI) ResendCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resendCalls
}

// CheckCalls returns the recorded CheckOTP calls
func (m *MockStorefrontAPI) CheckCalls() []CheckOTPCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CheckOTPCall(nil), m.checkCalls...)
}

// CurrentUserCalls returns how many times CurrentUser was called
func (m *MockStorefrontAPI) CurrentUserCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentUserCalls
}

// LogoutCalls returns how many times Logout was called
func (m *MockStorefrontAPI) LogoutCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logoutCalls
}

// Compile-time interface compliance verification
var _ domain.StorefrontAPI = (*MockStorefrontAPI)(nil)
