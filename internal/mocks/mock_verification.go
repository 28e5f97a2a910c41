package mocks

import (
	"context"

	"github.com/aquadic/souq4u/domain"
)

// MockVerificationRepository implements domain.VerificationRepository interface for testing
type MockVerificationRepository struct {
	SaveFunc           func(ctx context.Context, v *domain.Verification) error
	FindFunc           func(ctx context.Context, reference string) (*domain.Verification, error)
	DeleteFunc         func(ctx context.Context, reference string) error
	ThrottleResendFunc func(ctx context.Context, phone string) (int64, error)
}

// NewMockVerificationRepository creates a new MockVerificationRepository with default behaviors
func NewMockVerificationRepository() *MockVerificationRepository {
	return &MockVerificationRepository{}
}

// Save stores a verification
func (m *MockVerificationRepository) Save(ctx context.Context, v *domain.Verification) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, v)
	}
	return nil
}

// Find loads a verification by reference
func (m *MockVerificationRepository) Find(ctx context.Context, reference string) (*domain.Verification, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, reference)
	}
	return nil, domain.ErrVerificationNotFound
}

// Delete removes a verification
func (m *MockVerificationRepository) Delete(ctx context.Context, reference string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, reference)
	}
	return nil
}

// ThrottleResend reports the remaining resend wait
func (m *MockVerificationRepository) ThrottleResend(ctx context.Context, phone string) (int64, error) {
	if m.ThrottleResendFunc != nil {
		return m.ThrottleResendFunc(ctx, phone)
	}
	// Default behavior: allowed
	return 0, nil
}

// MockVerificationService implements domain.VerificationService interface for testing
type MockVerificationService struct {
	StartFunc   func(ctx context.Context, user *domain.User) (*domain.OTPCallback, error)
	ConfirmFunc func(ctx context.Context, reference, code string) (*domain.Verification, error)
	CheckFunc   func(ctx context.Context, reference, phone string) (*domain.Verification, error)
	ConsumeFunc func(ctx context.Context, reference string) error
}

// NewMockVerificationService creates a new MockVerificationService with default behaviors
func NewMockVerificationService() *MockVerificationService {
	return &MockVerificationService{}
}

// Start begins a verification
func (m *MockVerificationService) Start(ctx context.Context, user *domain.User) (*domain.OTPCallback, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, user)
	}
	return &domain.OTPCallback{Reference: "mock_ref", Phone: user.Phone, Scheme: "whatsapp"}, nil
}

// Confirm accepts a code
func (m *MockVerificationService) Confirm(ctx context.Context, reference, code string) (*domain.Verification, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, reference, code)
	}
	return &domain.Verification{Reference: reference, Verified: true}, nil
}

// Check reports the verification state
func (m *MockVerificationService) Check(ctx context.Context, reference, phone string) (*domain.Verification, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, reference, phone)
	}
	// Default behavior: still pending
	return nil, domain.ErrVerificationPending
}

// Consume discards a verified verification
func (m *MockVerificationService) Consume(ctx context.Context, reference string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, reference)
	}
	return nil
}

// MockCodeHasher implements domain.CodeHasher interface for testing
type MockCodeHasher struct {
	HashFunc   func(code string) (string, error)
	VerifyFunc func(hash, code string) bool
}

// NewMockCodeHasher creates a new MockCodeHasher with default behaviors
func NewMockCodeHasher() *MockCodeHasher {
	return &MockCodeHasher{}
}

// Hash hashes a code
func (m *MockCodeHasher) Hash(code string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(code)
	}
	return "hashed_" + code, nil
}

// Verify compares a code with its hash
func (m *MockCodeHasher) Verify(hash, code string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hash, code)
	}
	return hash == "hashed_"+code
}

// Compile-time interface compliance verification
var (
	_ domain.VerificationRepository = (*MockVerificationRepository)(nil)
	_ domain.VerificationService    = (*MockVerificationService)(nil)
	_ domain.CodeHasher             = (*MockCodeHasher)(nil)
)
