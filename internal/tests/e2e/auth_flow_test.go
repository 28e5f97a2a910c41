package e2e

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/config"
	"github.com/aquadic/souq4u/internal/locale"
	"github.com/aquadic/souq4u/internal/mocks"
)

const (
	rawPhone   = "01012345678"
	country    = "EG"
	normalized = "201012345678"
)

// loginThroughBackend runs the whole login and returns the issued token
func loginThroughBackend(t *testing.T, env *testEnv, ctx context.Context) string {
	t.Helper()
	client := env.newClient(nil)
	defer client.Close()

	attempt, err := client.Flow.Start(ctx, rawPhone, country)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, env.confirm(attempt.Reference, env.outbox.lastCode(normalized)))
	require.NoError(t, client.Flow.Wait(ctx))
	return client.Session.Snapshot().Token
}

func TestCompleteAuthenticationFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := waitCtx(t)

	// Login, confirm the texted code, and let polling pick it up
	notices := mocks.NewMockNotifier()
	client := env.newClient(notices)

	attempt, err := client.Flow.Start(ctx, rawPhone, country)
	require.NoError(t, err)
	assert.Equal(t, normalized, attempt.Phone)
	require.NotEmpty(t, attempt.Reference)
	require.NotNil(t, attempt.Callback)
	assert.Contains(t, attempt.Callback.URL, normalized)

	code := env.outbox.lastCode(normalized)
	require.NotEmpty(t, code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.confirm(attempt.Reference, "not-the-code"))
	assert.Equal(t, http.StatusOK, env.confirm(attempt.Reference, code))

	require.NoError(t, client.Flow.Wait(ctx))
	session := client.Session.Snapshot()
	require.True(t, session.Confirmed())
	assert.Equal(t, normalized, session.User.Phone)
	assert.NotNil(t, session.User.PhoneVerifiedAt)

	var success bool
	for _, n := range notices.Notices() {
		if n.Level == domain.NoticeSuccess {
			success = true
			assert.Equal(t, locale.Default.Translate(locale.MsgLoginSuccess), n.Message)
		}
	}
	assert.True(t, success)
	token := session.Token
	require.NoError(t, client.Close())

	// A fresh process restores the session from the stored credential
	restored := env.newClient(nil)
	restored.Initializer.Start(ctx)
	restored.Initializer.Stop()
	snap := restored.Session.Snapshot()
	require.True(t, snap.Confirmed())
	assert.Equal(t, token, snap.Token)
	assert.Equal(t, session.User.ID, snap.User.ID)

	// Remote logout revokes the token, local logout forgets it
	require.NoError(t, restored.API.Logout(ctx, token))
	require.NoError(t, restored.Session.Logout(ctx))
	require.NoError(t, restored.Close())

	after := env.newClient(nil)
	defer after.Close()
	after.Initializer.Start(ctx)
	assert.Equal(t, domain.Session{}, after.Session.Snapshot())
}

func TestLogoutEverywhereRevokesEveryDevice(t *testing.T) {
	env := newTestEnv(t)
	ctx := waitCtx(t)
	first := loginThroughBackend(t, env, ctx)
	second := loginThroughBackend(t, env, ctx)
	require.NotEqual(t, first, second)

	client := env.newClient(nil)
	defer client.Close()
	require.NoError(t, client.API.LogoutAll(ctx, second))

	for _, token := range []string{first, second} {
		_, err := client.API.CurrentUser(ctx, token)
		assert.True(t, domain.IsUnauthorized(err))
	}
}

func TestRevokedTokenClearsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := waitCtx(t)
	token := loginThroughBackend(t, env, ctx)

	// Revoke server side only; the stored token is now stale
	client := env.newClient(nil)
	require.NoError(t, client.API.Logout(ctx, token))
	stored, err := client.Credentials.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, stored)
	require.NoError(t, client.Close())

	stale := env.newClient(nil)
	defer stale.Close()
	stale.Initializer.Start(ctx)
	assert.Equal(t, domain.Session{}, stale.Session.Snapshot())
	_, err = stale.Credentials.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestBackendDownKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := waitCtx(t)
	token := loginThroughBackend(t, env, ctx)

	env.http.Close()

	offline := env.newClient(nil)
	defer offline.Close()
	offline.Initializer.Start(ctx)
	offline.Initializer.Stop()

	snap := offline.Session.Snapshot()
	assert.True(t, snap.Optimistic())
	assert.Equal(t, token, snap.Token)
	assert.False(t, snap.IsLoading)
}

func TestPollingTimesOutWithoutConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.OTPMaxAttempts = 3
	ctx := waitCtx(t)

	notices := mocks.NewMockNotifier()
	client := env.newClient(notices)
	defer client.Close()

	_, err := client.Flow.Start(ctx, rawPhone, country)
	require.NoError(t, err)

	err = client.Flow.Wait(ctx)
	assert.ErrorIs(t, err, domain.ErrPollTimeout)
	assert.False(t, client.Session.Snapshot().IsAuthenticated)

	all := notices.Notices()
	require.NotEmpty(t, all)
	last := all[len(all)-1]
	assert.Equal(t, domain.NoticeError, last.Level)
	assert.Equal(t, locale.Default.Translate(locale.MsgVerificationTimeout), last.Message)
}

func TestResendReplacesReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := waitCtx(t)

	client := env.newClient(nil)
	defer client.Close()

	attempt, err := client.Flow.Start(ctx, rawPhone, country)
	require.NoError(t, err)

	resend, err := client.Flow.Resend(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, attempt.Reference, resend.Reference())
	assert.Equal(t, 2, env.outbox.count(normalized))

	current, ok := client.Flow.Attempt()
	require.True(t, ok)
	assert.Equal(t, resend.Reference(), current.Reference)

	require.Equal(t, http.StatusOK, env.confirm(current.Reference, env.outbox.lastCode(normalized)))
	require.NoError(t, client.Flow.Wait(ctx))
	assert.True(t, client.Session.Snapshot().Confirmed())
}

func TestResendIsThrottled(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.ResendWindow = time.Minute })
	ctx := waitCtx(t)

	notices := mocks.NewMockNotifier()
	client := env.newClient(notices)
	defer client.Close()

	_, err := client.Flow.Start(ctx, rawPhone, country)
	require.NoError(t, err)

	_, err = client.Flow.Resend(ctx)
	var se *domain.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.Equal(t, 1, env.outbox.count(normalized))

	// polling carries on after a failed resend
	_, ok := client.Flow.Attempt()
	assert.True(t, ok)
}

func TestInvalidPhoneIsRejectedLocally(t *testing.T) {
	env := newTestEnv(t)
	ctx := waitCtx(t)

	notices := mocks.NewMockNotifier()
	client := env.newClient(notices)
	defer client.Close()

	_, err := client.Flow.Start(ctx, "12", country)
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)
	require.Len(t, notices.Notices(), 1)
	assert.Equal(t, "phone", notices.Notices()[0].Field)
	assert.Zero(t, env.outbox.count(normalized))

	_, err = client.Flow.Start(ctx, rawPhone, "ZZ")
	assert.ErrorIs(t, err, domain.ErrUnknownCountry)
}
