package backend

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/logutil"
)

// VerificationConfig controls code generation and delivery
type VerificationConfig struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
	Scheme      string
	// CallbackURL is a format string taking the phone and the reference
	CallbackURL string
}

// VerificationServiceImpl implements domain.VerificationService
type VerificationServiceImpl struct {
	repo     domain.VerificationRepository
	hasher   domain.CodeHasher
	notifier domain.NotificationService
	config   VerificationConfig
	logger   *slog.Logger
	now      func() time.Time
}

var _ domain.VerificationService = (*VerificationServiceImpl)(nil)

// NewVerificationService creates a verification service
func NewVerificationService(
	repo domain.VerificationRepository,
	hasher domain.CodeHasher,
	notifier domain.NotificationService,
	config VerificationConfig,
	logger *slog.Logger,
) *VerificationServiceImpl {
	if logger == nil {
		logger = logutil.Discard()
	}
	return &VerificationServiceImpl{
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Start implements domain.VerificationService
func (s *VerificationServiceImpl) Start(ctx context.Context, user *domain.User) (*domain.OTPCallback, error) {
	wait, err := s.repo.ThrottleResend(ctx, user.Phone)
	if err != nil {
		return nil, err
	}
	if wait > 0 {
		return nil, fmt.Errorf("please wait %d seconds before requesting a new code: %w", wait, domain.ErrOTPResendLimit)
	}

	code, err := s.generateSecureCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return nil, fmt.Errorf("failed to hash OTP code: %w", err)
	}

	now := s.now()
	v := &domain.Verification{
		Reference:    uuid.NewString(),
		Phone:        user.Phone,
		PhoneCountry: user.PhoneCountry,
		UserID:       user.ID,
		CodeHash:     hash,
		ExpiresAt:    now.Add(s.config.TTL),
		CreatedAt:    now,
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your souq4u verification code is: %s. Valid for %d minutes.", code, int(s.config.TTL.Minutes()))
	if err := s.notifier.SendSMS(user.Phone, message); err != nil {
		_ = s.repo.Delete(ctx, v.Reference)
		return nil, fmt.Errorf("failed to send OTP: %w", err)
	}

	s.logger.Info("OTP_SENT", "user_id", user.ID, "phone", user.Phone, "reference", v.Reference)

	return &domain.OTPCallback{
		Reference: v.Reference,
		Message:   "Enter the code sent to your phone",
		Phone:     user.Phone,
		Scheme:    s.config.Scheme,
		URL:       s.callbackURL(user.Phone, v.Reference),
	}, nil
}

func (s *VerificationServiceImpl) callbackURL(phone, reference string) string {
	if s.config.CallbackURL == "" || strings.Count(s.config.CallbackURL, "%s") != 2 {
		return ""
	}
	return fmt.Sprintf(s.config.CallbackURL, phone, url.QueryEscape(reference))
}

// Confirm implements domain.VerificationService. Wrong codes count towards
// the attempt budget; exhausting it discards the verification.
func (s *VerificationServiceImpl) Confirm(ctx context.Context, reference, code string) (*domain.Verification, error) {
	v, err := s.repo.Find(ctx, reference)
	if err != nil {
		return nil, err
	}
	if v.Verified {
		return v, nil
	}

	v.Attempts++
	if v.Attempts > s.config.MaxAttempts {
		_ = s.repo.Delete(ctx, reference)
		s.logger.Warn("OTP_MAX_ATTEMPTS", "user_id", v.UserID, "phone", v.Phone, "reference", reference)
		return nil, domain.ErrOTPMaxAttempts
	}

	if !s.hasher.Verify(v.CodeHash, strings.TrimSpace(code)) {
		if err := s.repo.Save(ctx, v); err != nil {
			return nil, err
		}
		return nil, domain.ErrOTPInvalid
	}

	v.Verified = true
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info("PHONE_VERIFIED", "user_id", v.UserID, "phone", v.Phone, "reference", reference)
	return v, nil
}

// Check implements domain.VerificationService. A pending verification
// reports ErrVerificationPending; one for another phone is not found.
func (s *VerificationServiceImpl) Check(ctx context.Context, reference, phone string) (*domain.Verification, error) {
	v, err := s.repo.Find(ctx, reference)
	if err != nil {
		return nil, err
	}
	if v.Phone != phone {
		return nil, domain.ErrVerificationNotFound
	}
	if !v.Verified {
		return nil, domain.ErrVerificationPending
	}
	return v, nil
}

// Consume removes a verified verification so its reference cannot be replayed
func (s *VerificationServiceImpl) Consume(ctx context.Context, reference string) error {
	err := s.repo.Delete(ctx, reference)
	if err != nil && !errors.Is(err, domain.ErrVerificationNotFound) {
		return err
	}
	return nil
}

// generateSecureCode generates a cryptographically secure OTP code
func (s *VerificationServiceImpl) generateSecureCode() (string, error) {
	digits := make([]byte, s.config.Length)

	for i := 0; i < s.config.Length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}

	return string(digits), nil
}
