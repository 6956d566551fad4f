package app

import (
	"Gin_postgres_redis_swab_tracker/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

const AdminSessionCookie = "admin_session"

// AdminRequired 特权路由的门闸：Cookie 里的 session 值必须在 Redis 里还活着
func AdminRequired(adminSess *session.AdminSessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AdminSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if _, err := adminSess.Get(c.Request.Context(), ck.Value); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}
		c.Set("isAdmin", true)
		c.Next()
	}
}
