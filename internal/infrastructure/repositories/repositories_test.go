package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquadic/souq4u/domain"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&DBUser{}))
	return db
}

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestUserRepositoryImpl_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := &domain.User{Name: "Ali", Phone: "201012345678", PhoneCountry: "EG", Language: "ar", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	tests := []struct {
		name          string
		phone         string
		country       string
		expectedError error
	}{
		{name: "found", phone: "201012345678", country: "EG"},
		{name: "other country", phone: "201012345678", country: "SA", expectedError: domain.ErrUserNotFound},
		{name: "unknown phone", phone: "201000000000", country: "EG", expectedError: domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindByPhone(ctx, tt.phone, tt.country)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, found.ID)
			assert.Equal(t, "Ali", found.Name)
			assert.Equal(t, "ar", found.Language)
			assert.True(t, found.IsActive)
			assert.Nil(t, found.PhoneVerifiedAt)
		})
	}

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "201012345678", byID.Phone)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepositoryImpl_DuplicatePhone(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Phone: "201012345678", PhoneCountry: "EG"}))
	assert.Error(t, repo.Create(ctx, &domain.User{Phone: "201012345678", PhoneCountry: "EG"}))
}

func TestUserRepositoryImpl_MarkPhoneVerified(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := &domain.User{Phone: "201012345678", PhoneCountry: "EG", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.MarkPhoneVerified(ctx, user.ID))
	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.PhoneVerifiedAt)
	first := *found.PhoneVerifiedAt

	// verifying again keeps the first timestamp
	require.NoError(t, repo.MarkPhoneVerified(ctx, user.ID))
	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, first.Equal(*found.PhoneVerifiedAt))

	assert.ErrorIs(t, repo.MarkPhoneVerified(ctx, 999), domain.ErrUserNotFound)
}

func TestSessionRepositoryImpl(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	session := &domain.BackendSession{ID: "sess-1", UserID: 7, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))
	assert.True(t, mr.Exists("session:sess-1"))
	assert.Equal(t, time.Hour, mr.TTL("session:sess-1"))

	found, err := repo.FindByID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, uint(7), found.UserID)

	members, err := mr.Members("user_sessions:7")
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-1"}, members)

	require.NoError(t, repo.Delete(ctx, "sess-1"))
	_, err = repo.FindByID(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.False(t, mr.Exists("user_sessions:7"))

	// unknown sessions delete quietly
	assert.NoError(t, repo.Delete(ctx, "sess-1"))
}

func TestSessionRepositoryImpl_DeleteByUser(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	for _, s := range []*domain.BackendSession{
		{ID: "phone", UserID: 7, ExpiresAt: time.Now().Add(time.Hour)},
		{ID: "laptop", UserID: 7, ExpiresAt: time.Now().Add(time.Hour)},
		{ID: "other", UserID: 8, ExpiresAt: time.Now().Add(time.Hour)},
	} {
		require.NoError(t, repo.Create(ctx, s))
	}
	// a session that already lapsed in Redis is not counted
	mr.Del("session:laptop")

	n, err := repo.DeleteByUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists("session:phone"))
	assert.False(t, mr.Exists("user_sessions:7"))

	_, err = repo.FindByID(ctx, "other")
	assert.NoError(t, err)

	n, err = repo.DeleteByUser(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionRepositoryImpl_Expired(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	session := &domain.BackendSession{ID: "old", UserID: 7, ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, session))

	_, err := repo.FindByID(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.False(t, mr.Exists("session:old"))
	assert.False(t, mr.Exists("user_sessions:7"))
}

func TestVerificationRepositoryImpl(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewVerificationRepository(client, 30*time.Second)
	ctx := context.Background()

	v := &domain.Verification{
		Reference: "ref1",
		Phone:     "201012345678",
		UserID:    1,
		CodeHash:  "hash",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, repo.Save(ctx, v))
	assert.True(t, mr.Exists("otp:ver:ref1"))

	found, err := repo.Find(ctx, "ref1")
	require.NoError(t, err)
	assert.Equal(t, "hash", found.CodeHash)
	assert.Equal(t, uint(1), found.UserID)

	require.NoError(t, repo.Delete(ctx, "ref1"))
	_, err = repo.Find(ctx, "ref1")
	assert.ErrorIs(t, err, domain.ErrVerificationNotFound)

	expired := &domain.Verification{Reference: "ref2", ExpiresAt: time.Now().Add(-time.Second)}
	assert.ErrorIs(t, repo.Save(ctx, expired), domain.ErrVerificationNotFound)
}

func TestVerificationRepositoryImpl_ThrottleResend(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewVerificationRepository(client, 30*time.Second)
	ctx := context.Background()

	wait, err := repo.ThrottleResend(ctx, "201012345678")
	require.NoError(t, err)
	assert.Zero(t, wait)

	wait, err = repo.ThrottleResend(ctx, "201012345678")
	require.NoError(t, err)
	assert.Equal(t, int64(30), wait)

	// other phones are independent
	wait, err = repo.ThrottleResend(ctx, "966501234567")
	require.NoError(t, err)
	assert.Zero(t, wait)

	mr.FastForward(31 * time.Second)
	wait, err = repo.ThrottleResend(ctx, "201012345678")
	require.NoError(t, err)
	assert.Zero(t, wait)
}

func TestVerificationRepositoryImpl_NoWindow(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewVerificationRepository(client, 0)

	for i := 0; i < 3; i++ {
		wait, err := repo.ThrottleResend(context.Background(), "201012345678")
		require.NoError(t, err)
		assert.Zero(t, wait)
	}
}
