package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
	"github.com/noah-isme/tutor-allocation-api/pkg/response"
)

// RequireRoles only lets requests through whose token carries one of roles.
// It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		switch {
		case claims == nil:
			response.Error(c, appErrors.ErrUnauthorized)
		case !claims.HasAnyRole(roles...):
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not access this resource"))
		default:
			c.Next()
			return
		}
		c.Abort()
	}
}
