package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aquadic/souq4u/domain"
)

// SessionRepositoryImpl keeps backend sessions in Redis. A session lives
// under session:<id> and user_sessions:<user id> indexes the ids a user
// holds, so every device of a user can be signed out at once.
type SessionRepositoryImpl struct {
	client      *redis.Client
	prefix      string
	indexPrefix string
	ttl         time.Duration
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepositoryImpl {
	return &SessionRepositoryImpl{
		client:      client,
		prefix:      "session:",
		indexPrefix: "user_sessions:",
		ttl:         ttl,
	}
}

var _ domain.SessionRepository = (*SessionRepositoryImpl)(nil)

func (r *SessionRepositoryImpl) sessionKey(id string) string { return r.prefix + id }

func (r *SessionRepositoryImpl) indexKey(userID uint) string {
	return r.indexPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Create stores the session and adds it to its user's index. The index
// lives as long as the newest session.
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *domain.BackendSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	index := r.indexKey(session.UserID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.ID), data, r.ttl)
		pipe.SAdd(ctx, index, session.ID)
		pipe.Expire(ctx, index, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// FindByID returns the session, dropping it when its expiry has passed
func (r *SessionRepositoryImpl) FindByID(ctx context.Context, sessionID string) (*domain.BackendSession, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.BackendSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.ExpiresAt.Before(time.Now()) {
		if err := r.remove(ctx, sessionID, session.UserID); err != nil {
			return nil, err
		}
		return nil, domain.ErrSessionExpired
	}

	return &session, nil
}

// Delete revokes one session. Deleting an unknown session is not an error.
func (r *SessionRepositoryImpl) Delete(ctx context.Context, sessionID string) error {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	var session domain.BackendSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		// unreadable, so the owning index is unknown
		return r.client.Del(ctx, r.sessionKey(sessionID)).Err()
	}
	return r.remove(ctx, sessionID, session.UserID)
}

// DeleteByUser revokes every session of userID and reports how many were
// still live.
func (r *SessionRepositoryImpl) DeleteByUser(ctx context.Context, userID uint) (int, error) {
	index := r.indexKey(userID)
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}

	var deleted *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.Del(ctx, index)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return int(deleted.Val()), nil
}

func (r *SessionRepositoryImpl) remove(ctx context.Context, sessionID string, userID uint) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(sessionID))
		pipe.SRem(ctx, r.indexKey(userID), sessionID)
		return nil
	})
	return err
}
