package domain

import "time"

// User represents a storefront customer as returned by the commerce API
type User struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone"`
	PhoneCountry    string     `json:"phone_country"`
	PhoneVerifiedAt *time.Time `json:"phone_verified_at,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	Language        string     `json:"language,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsBlocked       bool       `json:"is_blocked"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Session is the client-side authentication state.
// IsAuthenticated may be true while User is nil: a stored token is being
// trusted pending validation.
type Session struct {
	User            *User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// HasToken reports whether a bearer credential is held
func (s Session) HasToken() bool {
	return s.Token != ""
}

// Confirmed reports whether the session has been validated against the server
func (s Session) Confirmed() bool {
	return s.IsAuthenticated && s.User != nil && !s.IsLoading
}

// Optimistic reports whether a token is trusted without a confirmed user
func (s Session) Optimistic() bool {
	return s.IsAuthenticated && s.Token != "" && s.User == nil
}

// LoginResult represents the outcome of the login endpoint
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// OTPCallback describes how the verification code is delivered
type OTPCallback struct {
	Reference string `json:"reference"`
	Message   string `json:"message"`
	Phone     string `json:"phone"`
	Scheme    string `json:"scheme"`
	URL       string `json:"url"`
}

// ResendResult represents the outcome of the resend endpoint
type ResendResult struct {
	Message     string       `json:"message,omitempty"`
	OTPCallback *OTPCallback `json:"otp_callback,omitempty"`
}

// Reference returns the verification reference, if any
func (r *ResendResult) Reference() string {
	if r == nil || r.OTPCallback == nil {
		return ""
	}
	return r.OTPCallback.Reference
}

// OTPCheckResult is the payload of an OTP check. The zero value means
// the attempt is not verified yet.
type OTPCheckResult struct {
	User  *User  `json:"user,omitempty"`
	Token string `json:"token,omitempty"`
}

// Verified reports whether the check confirmed the phone
func (r *OTPCheckResult) Verified() bool {
	return r != nil && r.User != nil && r.Token != ""
}

// VerificationAttempt holds the transient state of one login flow
type VerificationAttempt struct {
	Phone        string
	PhoneCountry string
	Token        string
	Reference    string
	Callback     *OTPCallback
	StartedAt    time.Time
}

// Verification is a pending phone verification held by the backend
type Verification struct {
	Reference    string    `json:"reference"`
	Phone        string    `json:"phone"`
	PhoneCountry string    `json:"phone_country"`
	UserID       uint      `json:"user_id"`
	CodeHash     string    `json:"code_hash"`
	Attempts     int       `json:"attempts"`
	Verified     bool      `json:"verified"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// BackendSession represents a bearer session issued by the backend
type BackendSession struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NoticeLevel classifies user-facing notices
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message (a toast in the storefront UI)
type Notice struct {
	Level   NoticeLevel
	Message string
	Field   string
}
