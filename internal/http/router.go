package httpx

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquadic/souq4u/internal/http/handlers"
	"github.com/aquadic/souq4u/internal/http/middleware"
)

// BuildRouter wires the storefront authentication routes
func BuildRouter(ah *handlers.AuthHandlers, jwtmw *middleware.AuthMW, cb *middleware.CasbinMW, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	user := r.Group("/user")
	user.POST("/login", ah.Login)
	user.POST("/resend", ah.Resend)
	user.POST("/otp/check", ah.CheckOTP)
	user.POST("/otp/confirm", ah.ConfirmOTP)

	authed := user.Group("").Use(jwtmw.WithJWT(), cb.Enforce())
	authed.GET("/user", ah.CurrentUser)
	authed.POST("/user", ah.CurrentUser)
	authed.POST("/logout", ah.Logout)
	authed.POST("/logout/all", ah.LogoutAll)

	return r
}
