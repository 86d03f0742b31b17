package middleware

import (
	"net/http"

	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RequireRoles allows the request through only when the authenticated user's
// role is one of the given roles. Must run after JWTAuthMiddleware.
func RequireRoles(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := identity.Role(GetJWTRole(c))
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString("request_id")))
			return
		}
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "You do not have permission to perform this action", c.GetString("request_id")))
			return
		}
		c.Next()
	}
}
