package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/http/middleware"
	"github.com/aquadic/souq4u/internal/logutil"
	"github.com/aquadic/souq4u/internal/phone"
)

// AuthHandlers serves the storefront authentication endpoints
type AuthHandlers struct {
	accounts domain.AccountService
	logger   *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(accounts domain.AccountService, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = logutil.Discard()
	}
	return &AuthHandlers{accounts: accounts, logger: logger}
}

// LoginRequest represents login request
type LoginRequest struct {
	Phone        string `json:"phone"`
	PhoneCountry string `json:"phone_country"`
}

// ResendRequest represents verification resend request
type ResendRequest struct {
	Phone        string `json:"phone"`
	PhoneCountry string `json:"phone_country"`
	Type         string `json:"type"`
	VerifyType   string `json:"verify_type"`
}

// CheckRequest represents OTP status request
type CheckRequest struct {
	Phone        string `json:"phone"`
	PhoneCountry string `json:"phone_country"`
	Reference    string `json:"reference"`
}

// ConfirmRequest represents OTP code submission
type ConfirmRequest struct {
	Reference string `json:"reference"`
	Code      string `json:"code"`
}

// Login handles phone login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}
	number, ok := normalizePhone(c, req.Phone, req.PhoneCountry)
	if !ok {
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), number, strings.ToUpper(req.PhoneCountry))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Resend handles verification code requests
func (h *AuthHandlers) Resend(c *gin.Context) {
	var req ResendRequest
	if !h.bind(c, &req) {
		return
	}
	number, ok := normalizePhone(c, req.Phone, req.PhoneCountry)
	if !ok {
		return
	}

	result, err := h.accounts.Resend(c.Request.Context(), number, strings.ToUpper(req.PhoneCountry))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckOTP reports whether the verification has been confirmed. A pending
// verification answers 409.
func (h *AuthHandlers) CheckOTP(c *gin.Context) {
	var req CheckRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Phone == "" {
		writeValidation(c, "The given data was invalid.", map[string][]string{"phone": {"The phone field is required."}})
		return
	}

	result, err := h.accounts.Check(c.Request.Context(), req.Phone, req.Reference)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmOTP accepts the code the customer received
func (h *AuthHandlers) ConfirmOTP(c *gin.Context) {
	var req ConfirmRequest
	if !h.bind(c, &req) {
		return
	}
	fields := map[string][]string{}
	if req.Reference == "" {
		fields["reference"] = []string{"The reference field is required."}
	}
	if req.Code == "" {
		fields["code"] = []string{"The code field is required."}
	}
	if len(fields) > 0 {
		writeValidation(c, "The given data was invalid.", fields)
		return
	}

	if err := h.accounts.Confirm(c.Request.Context(), req.Reference, req.Code); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone verified successfully"})
}

// CurrentUser returns the authenticated customer (requires authentication)
func (h *AuthHandlers) CurrentUser(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	user, err := h.accounts.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout revokes the current session (requires authentication)
func (h *AuthHandlers) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), claims); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.logger.Info("USER_LOGGED_OUT", "user_id", claims.UserID, "session_id", claims.SessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// LogoutAll revokes every session of the authenticated user
func (h *AuthHandlers) LogoutAll(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	n, err := h.accounts.LogoutAll(c.Request.Context(), claims)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.logger.Info("USER_LOGGED_OUT_ALL", "user_id", claims.UserID, "sessions", n)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out of all devices", "sessions": n})
}

func (h *AuthHandlers) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed request body"})
		return false
	}
	return true
}

func normalizePhone(c *gin.Context, raw, country string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		writeValidation(c, "The given data was invalid.", map[string][]string{"phone": {"The phone field is required."}})
		return "", false
	}
	number, err := phone.Normalize(raw, country)
	if err != nil {
		field := "phone"
		if errors.Is(err, domain.ErrUnknownCountry) {
			field = "phone_country"
		}
		writeValidation(c, "The given data was invalid.", map[string][]string{field: {"The " + strings.ReplaceAll(field, "_", " ") + " is invalid."}})
		return "", false
	}
	return number, true
}
