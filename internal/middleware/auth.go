package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"moodadmin/api/internal/config"
	"moodadmin/api/internal/models"
	"moodadmin/api/internal/repository"
	"moodadmin/api/internal/security"
)

func Auth(cfg *config.AppConfig, admins *repository.AdminRepository, sessions *repository.AdminSessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			return
		}

		if session.AdminID != claims.AdminID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			return
		}

		admin, err := admins.GetByID(c.Request.Context(), claims.AdminID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin_not_found"})
			return
		}

		_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set("access_claims", *claims)
		c.Set("current_admin", admin)

		c.Next()
	}
}

// CurrentAdmin returns the authenticated admin placed on the context by Auth.
func CurrentAdmin(c *gin.Context) (models.AdminUser, bool) {
	v, ok := c.Get("current_admin")
	if !ok {
		return models.AdminUser{}, false
	}
	admin, ok := v.(models.AdminUser)
	return admin, ok
}
