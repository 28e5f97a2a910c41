package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/infrastructure/transport"
)

// StatusNotYetVerified is the status the OTP check endpoint answers with
// while the verification is still pending.
const StatusNotYetVerified = http.StatusConflict

// Endpoint paths, relative to the API base URL
const (
	PathLogin       = "/user/login"
	PathResend      = "/user/resend"
	PathCheckOTP    = "/user/otp/check"
	PathCurrentUser = "/user/user"
	PathLogout      = "/user/logout"
	PathLogoutAll   = "/user/logout/all"
)

// Verification flags sent with every resend
const (
	ResendType       = "login"
	ResendVerifyType = "whatsapp"
)

// Client implements domain.StorefrontAPI over the transport client
type Client struct {
	http *transport.Client
}

var _ domain.StorefrontAPI = (*Client)(nil)

// NewClient creates the API wrapper
func NewClient(c *transport.Client) *Client {
	return &Client{http: c}
}

type loginRequest struct {
	Phone        string `json:"phone"`
	PhoneCountry string `json:"phone_country"`
}

type resendRequest struct {
	Phone        string `json:"phone"`
	PhoneCountry string `json:"phone_country,omitempty"`
	Type         string `json:"type"`
	VerifyType   string `json:"verify_type"`
}

type checkRequest struct {
	Phone        string `json:"phone"`
	PhoneCountry string `json:"phone_country,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

// PostLogin starts a login and returns the token
func (c *Client) PostLogin(ctx context.Context, phone, phoneCountry string) (*domain.LoginResult, error) {
	resp, err := c.http.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathLogin,
		Body:   loginRequest{Phone: phone, PhoneCountry: phoneCountry},
	})
	if err != nil {
		return nil, err
	}

	var out domain.LoginResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendVerification triggers an OTP send; the bearer is attached only when token is set
func (c *Client) ResendVerification(ctx context.Context, phone, token, phoneCountry string) (*domain.ResendResult, error) {
	resp, err := c.http.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathResend,
		Token:  token,
		Body: resendRequest{
			Phone:        phone,
			PhoneCountry: phoneCountry,
			Type:         ResendType,
			VerifyType:   ResendVerifyType,
		},
	})
	if err != nil {
		return nil, err
	}

	var out domain.ResendResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckOTP polls the verification status. A pending verification yields an
// empty result, not an error.
func (c *Client) CheckOTP(ctx context.Context, phone, token, phoneCountry, reference string) (*domain.OTPCheckResult, error) {
	resp, err := c.http.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathCheckOTP,
		Token:  token,
		Body: checkRequest{
			Phone:        phone,
			PhoneCountry: phoneCountry,
			Reference:    reference,
		},
	})
	if err != nil {
		var se *domain.ServerError
		if errors.As(err, &se) && se.Status == StatusNotYetVerified {
			return &domain.OTPCheckResult{}, nil
		}
		return nil, err
	}

	var out domain.OTPCheckResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser validates token and returns the user it belongs to. The
// server answers with the bare user; an empty or unusable body yields a nil
// user without error.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("current user: %w", domain.ErrUnauthorized)
	}
	resp, err := c.http.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathCurrentUser,
		Token:  token,
	})
	if err != nil {
		return nil, err
	}

	var user domain.User
	if decodeErr := resp.Decode(&user); decodeErr != nil || user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

// Logout revokes token on the server
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.http.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathLogout,
		Token:  token,
	})
	return err
}

// LogoutAll revokes every session of the token's user on the server
func (c *Client) LogoutAll(ctx context.Context, token string) error {
	_, err := c.http.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathLogoutAll,
		Token:  token,
	})
	return err
}
