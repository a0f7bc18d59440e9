package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/casedesk/casedesk/internal/services"
	"github.com/casedesk/casedesk/pkg/errors"
	"github.com/casedesk/casedesk/pkg/response"
)

// PermissionChecker is the slice of the permission service the middleware needs.
type PermissionChecker interface {
	Check(ctx context.Context, input services.CheckInput) (services.CheckResult, error)
}

// RequirePermission ensures the authenticated caller holds the named
// permission before the request reaches its handler.
func RequirePermission(checker PermissionChecker, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUserIDKey)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, _ := v.(string)

		result, err := checker.Check(c.Request.Context(), services.CheckInput{
			UserID:     userID,
			Permission: permission,
		})
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !result.Granted {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
