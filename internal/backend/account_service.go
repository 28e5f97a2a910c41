// Package backend implements the storefront authentication endpoints
// served by the development server.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/infrastructure/auth"
	"github.com/aquadic/souq4u/internal/logutil"
)

// AccountService answers login, resend, OTP check and profile requests
type AccountService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	verifier   domain.VerificationService
	tokens     domain.TokenService
	sessionTTL time.Duration
	language   string
	logger     *slog.Logger
}

var _ domain.AccountService = (*AccountService)(nil)

// NewAccountService creates the account service
func NewAccountService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	verifier domain.VerificationService,
	tokens domain.TokenService,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AccountService {
	if logger == nil {
		logger = logutil.Discard()
	}
	return &AccountService{
		users:      users,
		sessions:   sessions,
		verifier:   verifier,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		language:   "ar",
		logger:     logger,
	}
}

// Login finds or registers the customer behind phone and issues a token
func (s *AccountService) Login(ctx context.Context, phone, phoneCountry string) (*domain.LoginResult, error) {
	user, err := s.users.FindByPhone(ctx, phone, phoneCountry)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{
			Phone:        phone,
			PhoneCountry: phoneCountry,
			Language:     s.language,
			IsActive:     true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.logger.Info("USER_REGISTERED", "user_id", user.ID, "phone", phone, "phone_country", phoneCountry)
	} else if err != nil {
		return nil, err
	}

	if !user.IsActive || user.IsBlocked {
		return nil, domain.ErrUserInactive
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{Token: token, User: user}, nil
}

// Resend starts a new verification for the customer behind phone
func (s *AccountService) Resend(ctx context.Context, phone, phoneCountry string) (*domain.ResendResult, error) {
	user, err := s.users.FindByPhone(ctx, phone, phoneCountry)
	if err != nil {
		return nil, err
	}
	callback, err := s.verifier.Start(ctx, user)
	if err != nil {
		return nil, err
	}
	return &domain.ResendResult{Message: "Verification code sent", OTPCallback: callback}, nil
}

// Check reports a pending verification as ErrVerificationPending. Once the
// phone is verified it returns the user with a fresh token and retires the
// reference.
func (s *AccountService) Check(ctx context.Context, phone, reference string) (*domain.OTPCheckResult, error) {
	if reference == "" {
		return nil, domain.ErrVerificationNotFound
	}
	v, err := s.verifier.Check(ctx, reference, phone)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, v.UserID)
	if err != nil {
		return nil, err
	}
	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.Consume(ctx, reference); err != nil {
		s.logger.Warn("failed to retire verification", "reference", reference, "error", err)
	}
	return &domain.OTPCheckResult{User: user, Token: token}, nil
}

// Confirm accepts the code for a verification and marks the phone verified
func (s *AccountService) Confirm(ctx context.Context, reference, code string) error {
	v, err := s.verifier.Confirm(ctx, reference, code)
	if err != nil {
		return err
	}
	if err := s.users.MarkPhoneVerified(ctx, v.UserID); err != nil {
		return logutil.LogAndWrapErr(s.logger, "failed to mark phone verified", err, "user_id", v.UserID)
	}
	return nil
}

// CurrentUser returns the customer behind a validated token
func (s *AccountService) CurrentUser(ctx context.Context, claims *domain.TokenClaims) (*domain.User, error) {
	if _, err := s.sessions.FindByID(ctx, claims.SessionID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive || user.IsBlocked {
		return nil, domain.ErrUserInactive
	}
	return user, nil
}

// Logout revokes the session behind a token
func (s *AccountService) Logout(ctx context.Context, claims *domain.TokenClaims) error {
	return s.sessions.Delete(ctx, claims.SessionID)
}

// LogoutAll revokes every session of the token's user, the current one
// included, and returns how many were revoked.
func (s *AccountService) LogoutAll(ctx context.Context, claims *domain.TokenClaims) (int, error) {
	n, err := s.sessions.DeleteByUser(ctx, claims.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return n, nil
}

func (s *AccountService) issueToken(ctx context.Context, user *domain.User) (string, error) {
	now := time.Now()
	session := &domain.BackendSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, auth.RoleCustomer, session.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}
