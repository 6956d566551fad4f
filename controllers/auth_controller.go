// controllers/auth_controller.go
package controllers

import (
	"crypto/subtle"
	"net/http"

	"Gin_postgres_redis_swab_tracker/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// Login 口令对上了就发一个显式的会话值（Redis 里有 TTL），后续特权调用都凭它
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if ac.Cfg.AdminPassword == "" {
		c.JSON(http.StatusForbidden, app.H{"error": "admin login disabled"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(in.Password), []byte(ac.Cfg.AdminPassword)) != 1 {
		c.JSON(http.StatusUnauthorized, app.H{"error": "wrong password"})
		return
	}

	id := uuid.NewString()
	if err := ac.AdminSess.Create(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	ac.setAdminCookie(c.Writer, id, ac.Cfg.SessionTTL)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// 登出：删 Redis，会话 Cookie 置空
func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AdminSessionCookie); err == nil && ck.Value != "" {
		_ = ac.AdminSess.Delete(c.Request.Context(), ck.Value)
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     app.AdminSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   ac.Cfg.SecureCookies(),
	})
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (ac *AuthController) WhoAmI(c *gin.Context) {
	isAdmin := false
	if ck, err := c.Request.Cookie(app.AdminSessionCookie); err == nil && ck.Value != "" {
		if _, err := ac.AdminSess.Get(c.Request.Context(), ck.Value); err == nil {
			isAdmin = true
		}
	}
	c.JSON(http.StatusOK, app.H{"isAdmin": isAdmin})
}
