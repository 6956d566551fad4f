// controllers/srv.go
package controllers

import (
	"net/http"
	"time"

	"Gin_postgres_redis_swab_tracker/app"
	"Gin_postgres_redis_swab_tracker/db"
	"Gin_postgres_redis_swab_tracker/labels"
	"Gin_postgres_redis_swab_tracker/session"
)

type Srv struct {
	Repo      *db.Repo
	AdminSess *session.AdminSessionStore
	Labels    *labels.Service
	Cfg       app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:      db.NewRepo(a.DB),
		AdminSess: a.AdminSessions(),
		Labels:    labels.NewService(a.Config.LabelsDir),
		Cfg:       a.Config,
	}
}

// --- helpers ---

// 统一设置管理员会话 Cookie
func (s *Srv) setAdminCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.AdminSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Cfg.SecureCookies(),
		MaxAge:   int(maxAge / time.Second),
	})
}

// 请求里带 ts 就用请求的（RFC3339），否则取当前时间
func parseTs(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
