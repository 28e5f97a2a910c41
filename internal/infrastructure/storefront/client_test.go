package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/infrastructure/transport"
)

type recordedRequest struct {
	Path   string
	Auth   string
	Body   map[string]any
	Method string
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r recordedRequest)) (*Client, func() []recordedRequest) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Method: r.Method}
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()
		handler(w, rec)
	}))
	t.Cleanup(srv.Close)

	recorded := func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), calls...)
	}
	return NewClient(transport.NewClient(srv.URL)), recorded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_PostLogin(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, map[string]any{"token": "abc", "user": map[string]any{"id": 1, "name": "Ali"}})
	})

	res, err := c.PostLogin(context.Background(), "201012345678", "EG")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, uint(1), res.User.ID)

	require.Len(t, calls(), 1)
	call := calls()[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, PathLogin, call.Path)
	assert.Empty(t, call.Auth)
	assert.Equal(t, "201012345678", call.Body["phone"])
	assert.Equal(t, "EG", call.Body["phone_country"])
}

func TestClient_PostLogin_ValidationError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"phone": {"The phone is invalid."}},
		})
	})

	_, err := c.PostLogin(context.Background(), "1", "EG")
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"The phone is invalid."}, ve.Messages())
}

func TestClient_ResendVerification(t *testing.T) {
	tests := []struct {
		name         string
		token        string
		expectedAuth string
	}{
		{name: "with token", token: "abc", expectedAuth: "Bearer abc"},
		{name: "without token", token: "", expectedAuth: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r recordedRequest) {
				writeJSON(w, http.StatusOK, map[string]any{
					"message": "sent",
					"otp_callback": map[string]any{
						"reference": "ref1",
						"message":   "Send this code",
						"phone":     "201000000000",
						"scheme":    "whatsapp",
						"url":       "https://wa.me/201000000000?text=ref1",
					},
				})
			})

			res, err := c.ResendVerification(context.Background(), "201012345678", tt.token, "EG")
			require.NoError(t, err)
			assert.Equal(t, "ref1", res.Reference())
			assert.Equal(t, "whatsapp", res.OTPCallback.Scheme)

			call := calls()[0]
			assert.Equal(t, PathResend, call.Path)
			assert.Equal(t, tt.expectedAuth, call.Auth)
			assert.Equal(t, ResendType, call.Body["type"])
			assert.Equal(t, ResendVerifyType, call.Body["verify_type"])
		})
	}
}

func TestClient_CheckOTP(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		verified bool
		wantErr  bool
	}{
		{
			name:     "pending status is an empty result",
			status:   StatusNotYetVerified,
			body:     map[string]any{"message": "not verified yet"},
			verified: false,
		},
		{
			name:     "empty object",
			status:   http.StatusOK,
			body:     map[string]any{},
			verified: false,
		},
		{
			name:     "verified",
			status:   http.StatusOK,
			body:     map[string]any{"token": "abc", "user": map[string]any{"id": 1, "name": "Ali"}},
			verified: true,
		},
		{
			name:    "server failure",
			status:  http.StatusInternalServerError,
			body:    map[string]any{"message": "boom"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r recordedRequest) {
				writeJSON(w, tt.status, tt.body)
			})

			res, err := c.CheckOTP(context.Background(), "201012345678", "abc", "EG", "ref1")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.verified, res.Verified())

			call := calls()[0]
			assert.Equal(t, PathCheckOTP, call.Path)
			assert.Equal(t, "Bearer abc", call.Auth)
			assert.Equal(t, "ref1", call.Body["reference"])
		})
	}
}

func TestClient_CurrentUser(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		expectedUser uint
		unauthorized bool
		wantErr      bool
	}{
		{name: "bare user", status: http.StatusOK, body: `{"id":7,"name":"Mona"}`, expectedUser: 7},
		{name: "empty body", status: http.StatusOK, body: ``},
		{name: "malformed body", status: http.StatusOK, body: `[1,2]`},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"Unauthenticated."}`, unauthorized: true, wantErr: true},
		{name: "server error", status: http.StatusServiceUnavailable, body: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r recordedRequest) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			user, err := c.CurrentUser(context.Background(), "xyz")
			assert.Equal(t, "Bearer xyz", calls()[0].Auth)
			assert.Equal(t, PathCurrentUser, calls()[0].Path)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.unauthorized, domain.IsUnauthorized(err))
				return
			}
			require.NoError(t, err)
			if tt.expectedUser == 0 {
				assert.Nil(t, user)
				return
			}
			require.NotNil(t, user)
			assert.Equal(t, tt.expectedUser, user.ID)
		})
	}
}

func TestClient_CurrentUser_WithoutToken(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r recordedRequest) {
		t.Error("no request expected")
	})

	_, err := c.CurrentUser(context.Background(), "")
	assert.True(t, domain.IsUnauthorized(err))
	assert.Empty(t, calls())
}

func TestClient_Logout(t *testing.T) {
	tests := []struct {
		name         string
		logout       func(c *Client, ctx context.Context, token string) error
		expectedPath string
	}{
		{name: "this device", logout: (*Client).Logout, expectedPath: PathLogout},
		{name: "every device", logout: (*Client).LogoutAll, expectedPath: PathLogoutAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r recordedRequest) {
				writeJSON(w, http.StatusOK, map[string]any{"message": "ok"})
			})

			require.NoError(t, tt.logout(c, context.Background(), "xyz"))
			require.Len(t, calls(), 1)
			assert.Equal(t, tt.expectedPath, calls()[0].Path)
			assert.Equal(t, http.MethodPost, calls()[0].Method)
			assert.Equal(t, "Bearer xyz", calls()[0].Auth)
		})
	}
}
