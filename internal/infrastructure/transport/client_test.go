package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/locale"
)

func TestClient_Do_Headers(t *testing.T) {
	tests := []struct {
		name         string
		token        string
		locale       locale.Locale
		expectedAuth string
		expectedLang string
	}{
		{
			name:         "bearer and arabic",
			token:        "abc",
			locale:       locale.Negotiate("ar"),
			expectedAuth: "Bearer abc",
			expectedLang: "ar",
		},
		{
			name:         "anonymous english",
			token:        "",
			locale:       locale.Negotiate("en"),
			expectedAuth: "",
			expectedLang: "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got http.Header
			var gotBody map[string]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				_ = json.NewDecoder(r.Body).Decode(&gotBody)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL+"/", WithLocale(tt.locale))
			resp, err := c.Do(context.Background(), Request{
				Method: http.MethodPost,
				Path:   "/user/login",
				Token:  tt.token,
				Body:   map[string]string{"phone": "201012345678"},
			})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.Status)

			assert.Equal(t, "application/json", got.Get("Content-Type"))
			assert.Equal(t, "application/json", got.Get("Accept"))
			assert.Equal(t, tt.expectedLang, got.Get("Accept-Language"))
			assert.Equal(t, tt.expectedAuth, got.Get("Authorization"))
			assert.Equal(t, "201012345678", gotBody["phone"])
		})
	}
}

func TestClient_Do_Classification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		validate func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"message":"Unauthenticated."}`,
			validate: func(t *testing.T, err error) {
				assert.True(t, domain.IsUnauthorized(err))
			},
		},
		{
			name:   "validation errors",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"The given data was invalid.","errors":{"phone":["The phone field is required."]}}`,
			validate: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, []string{"The phone field is required."}, ve.Fields["phone"])
				assert.False(t, domain.IsUnauthorized(err))
			},
		},
		{
			name:   "unprocessable without fields is a server error",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"nope"}`,
			validate: func(t *testing.T, err error) {
				var se *domain.ServerError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, "nope", se.Message)
			},
		},
		{
			name:   "server error with html body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			validate: func(t *testing.T, err error) {
				var se *domain.ServerError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusBadGateway, se.Status)
				assert.True(t, domain.IsTransient(err))
			},
		},
		{
			name:   "error field fallback",
			status: http.StatusConflict,
			body:   `{"error":"not verified"}`,
			validate: func(t *testing.T, err error) {
				var se *domain.ServerError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusConflict, se.Status)
				assert.Equal(t, "not verified", se.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Do(context.Background(), Request{Method: http.MethodPost, Path: "/x"})
			require.Error(t, err)
			tt.validate(t, err)
		})
	}
}

func TestClient_Do_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/user/user", Token: "xyz"})
	require.Error(t, err)

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "POST /user/user", netErr.Op)
	assert.False(t, domain.IsUnauthorized(err))
}

func TestResponse_Decode(t *testing.T) {
	var out map[string]any
	require.NoError(t, (&Response{Body: []byte("  ")}).Decode(&out))
	assert.Nil(t, out)

	require.NoError(t, (&Response{Body: []byte(`{"a":1}`)}).Decode(&out))
	assert.Equal(t, float64(1), out["a"])

	assert.Error(t, (&Response{Body: []byte(`{`)}).Decode(&out))
}
