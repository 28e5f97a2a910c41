package domain

import "context"

// CredentialStore persists the bearer token between runs
type CredentialStore interface {
	// Get returns ErrCredentialNotFound when no token is stored.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}

// CurrentUserFetcher validates a token against the server.
// A nil user with a nil error means the server answered without a usable payload.
type CurrentUserFetcher interface {
	CurrentUser(ctx context.Context, token string) (*User, error)
}

// StorefrontAPI defines the commerce API calls used by the auth core
type StorefrontAPI interface {
	CurrentUserFetcher
	PostLogin(ctx context.Context, phone, phoneCountry string) (*LoginResult, error)
	ResendVerification(ctx context.Context, phone, token, phoneCountry string) (*ResendResult, error)
	CheckOTP(ctx context.Context, phone, token, phoneCountry, reference string) (*OTPCheckResult, error)
	Logout(ctx context.Context, token string) error
}

// Notifier surfaces user-facing notices
type Notifier interface {
	Notify(notice Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

// Notify implements Notifier
func (f NotifierFunc) Notify(n Notice) { f(n) }

// UserRepository defines backend user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByPhone(ctx context.Context, phone, phoneCountry string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	MarkPhoneVerified(ctx context.Context, userID uint) error
}

// SessionRepository defines backend session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *BackendSession) error
	FindByID(ctx context.Context, sessionID string) (*BackendSession, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteByUser(ctx context.Context, userID uint) (int, error)
}

// VerificationRepository stores pending phone verifications
type VerificationRepository interface {
	Save(ctx context.Context, v *Verification) error
	Find(ctx context.Context, reference string) (*Verification, error)
	Delete(ctx context.Context, reference string) error
	// ThrottleResend returns the remaining wait in seconds when a resend
	// for phone happened within the window; zero means allowed.
	ThrottleResend(ctx context.Context, phone string) (int64, error)
}

// VerificationService defines backend OTP operations
type VerificationService interface {
	Start(ctx context.Context, user *User) (*OTPCallback, error)
	Confirm(ctx context.Context, reference, code string) (*Verification, error)
	Check(ctx context.Context, reference, phone string) (*Verification, error)
	Consume(ctx context.Context, reference string) error
}

// TokenService issues and validates backend bearer tokens
type TokenService interface {
	Generate(userID uint, role, sessionID string) (string, error)
	Validate(token string) (*TokenClaims, error)
}

// CodeHasher hashes verification codes at rest
type CodeHasher interface {
	Hash(code string) (string, error)
	Verify(hash, code string) bool
}

// NotificationService delivers verification codes
type NotificationService interface {
	SendSMS(to, message string) error
}

// PolicyService answers route authorization questions
type PolicyService interface {
	CheckPermission(role, resource, action string) (bool, error)
}

// AccountService answers the storefront authentication endpoints
type AccountService interface {
	Login(ctx context.Context, phone, phoneCountry string) (*LoginResult, error)
	Resend(ctx context.Context, phone, phoneCountry string) (*ResendResult, error)
	Check(ctx context.Context, phone, reference string) (*OTPCheckResult, error)
	Confirm(ctx context.Context, reference, code string) error
	CurrentUser(ctx context.Context, claims *TokenClaims) (*User, error)
	Logout(ctx context.Context, claims *TokenClaims) error
	LogoutAll(ctx context.Context, claims *TokenClaims) (int, error)
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
