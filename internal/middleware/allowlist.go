package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAllowed restricts a route group to admins whose ID appears in the
// configured allow list. An empty list admits any authenticated admin. The
// denial is a static 403 with no hint about who is admitted.
func RequireAllowed(allowedIDs []string) gin.HandlerFunc {
	allowAll := len(allowedIDs) == 0
	idSet := make(map[string]struct{}, len(allowedIDs))
	for _, id := range allowedIDs {
		idSet[id] = struct{}{}
	}

	return func(c *gin.Context) {
		admin, ok := CurrentAdmin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !allowAll {
			if _, ok := idSet[admin.ID]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
				return
			}
		}

		c.Next()
	}
}
