package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aquadic/souq4u/domain"
)

// VerificationRepositoryImpl implements domain.VerificationRepository using Redis
type VerificationRepositoryImpl struct {
	client       *redis.Client
	resendWindow time.Duration
}

// NewVerificationRepository creates a new verification repository
func NewVerificationRepository(client *redis.Client, resendWindow time.Duration) *VerificationRepositoryImpl {
	return &VerificationRepositoryImpl{client: client, resendWindow: resendWindow}
}

var _ domain.VerificationRepository = (*VerificationRepositoryImpl)(nil)

func verificationKey(reference string) string {
	return fmt.Sprintf("otp:ver:%s", reference)
}

func resendKey(phone string) string {
	return fmt.Sprintf("otp:res:%s", phone)
}

// Save implements domain.VerificationRepository. The record lives until it expires.
func (r *VerificationRepositoryImpl) Save(ctx context.Context, v *domain.Verification) error {
	ttl := time.Until(v.ExpiresAt)
	if ttl <= 0 {
		return domain.ErrVerificationNotFound
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal verification: %w", err)
	}
	if err := r.client.Set(ctx, verificationKey(v.Reference), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification in Redis: %w", err)
	}
	return nil
}

// Find implements domain.VerificationRepository
func (r *VerificationRepositoryImpl) Find(ctx context.Context, reference string) (*domain.Verification, error) {
	data, err := r.client.Get(ctx, verificationKey(reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrVerificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification from Redis: %w", err)
	}

	var v domain.Verification
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification: %w", err)
	}
	return &v, nil
}

// Delete implements domain.VerificationRepository
func (r *VerificationRepositoryImpl) Delete(ctx context.Context, reference string) error {
	return r.client.Del(ctx, verificationKey(reference)).Err()
}

// ThrottleResend implements domain.VerificationRepository. The first call in
// a window claims it; later calls get the seconds left.
func (r *VerificationRepositoryImpl) ThrottleResend(ctx context.Context, phone string) (int64, error) {
	if r.resendWindow <= 0 {
		return 0, nil
	}
	claimed, err := r.client.SetNX(ctx, resendKey(phone), 1, r.resendWindow).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to set resend throttle: %w", err)
	}
	if claimed {
		return 0, nil
	}

	ttl, err := r.client.TTL(ctx, resendKey(phone)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check resend TTL: %w", err)
	}
	wait := int64(ttl.Seconds())
	if wait < 1 {
		wait = 1
	}
	return wait, nil
}
