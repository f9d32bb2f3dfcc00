// identity.go extracts the caller identity supplied by the upstream gateway.
// Authentication itself happens before requests reach this service; the
// gateway forwards the resolved user in trusted headers.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDHeader carries the authenticated user's UUID, set by the gateway.
	UserIDHeader = "X-User-Id"

	// UserRoleHeader carries the authenticated user's role, set by the gateway.
	UserRoleHeader = "X-User-Role"

	// UserIDKey is the gin.Context key under which the user ID string is stored.
	UserIDKey = "user_id"

	// UserRoleKey is the gin.Context key under which the user role string is stored.
	UserRoleKey = "user_role"
)

// IdentityMiddleware copies the gateway identity headers into the request
// context. Roles are normalized to upper case. Requests without identity
// headers pass through; handlers that require an actor enforce presence
// themselves.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(UserIDHeader); id != "" {
			c.Set(UserIDKey, id)
		}
		if role := c.GetHeader(UserRoleHeader); role != "" {
			c.Set(UserRoleKey, strings.ToUpper(role))
		}

		c.Next()
	}
}
