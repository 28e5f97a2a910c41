package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquadic/souq4u/domain"
)

// CasbinMW authorizes authenticated requests against the route policy
type CasbinMW struct {
	policy domain.PolicyService
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policy domain.PolicyService) *CasbinMW {
	return &CasbinMW{policy: policy}
}

// Enforce returns the authorization middleware. It must run after WithJWT.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(UserRoleKey)
		if !ok {
			unauthorized(c)
			return
		}

		// Match the route pattern, not the raw path
		resource := c.FullPath()
		if resource == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := mw.policy.CheckPermission(role.(string), resource, c.Request.Method)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Authorization check failed"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
			return
		}
		c.Next()
	}
}
