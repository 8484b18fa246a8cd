// Package session trades the shared admin secret for a short lived token.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"event-portal/internal/core/auth"
	"event-portal/internal/transport/http/ez"
	"event-portal/pkg/utils"
)

type Module struct {
	secret string // plain secret or bcrypt hash
	jwt    *auth.JWTer
	log    *zap.Logger
}

// NewModule prefers secretHash over secret when both are configured.
func NewModule(secret, secretHash string, jwt *auth.JWTer, log *zap.Logger) *Module {
	if log == nil {
		log = zap.NewNop()
	}
	if secretHash != "" {
		secret = secretHash
	}
	return &Module{secret: secret, jwt: jwt, log: log.Named("session")}
}

// Mounted before the guarded admin modules.
func (m *Module) Priority() int { return 10 }

type loginIn struct {
	Secret string `json:"secret"`
}

type loginOut struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (m *Module) MountAdmin(g *gin.RouterGroup) {
	d := ez.Mount(g, "/session")
	ez.Register(d, ez.Action[loginIn, loginOut]{
		Name: "admin_login", Method: http.MethodPost, Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			return m.login(c.ClientIP(), in.Secret)
		},
	})
}

func (m *Module) login(ip, presented string) (loginOut, error) {
	if m.secret == "" {
		m.log.Warn("admin login attempted but no admin secret is configured")
		return loginOut{}, ez.Unauthorized("admin login is disabled")
	}
	if !utils.CheckSecret(strings.TrimSpace(presented), m.secret) {
		m.log.Warn("admin login rejected", zap.String("ip", ip))
		return loginOut{}, ez.Unauthorized("invalid secret")
	}
	tok, err := m.jwt.Issue(auth.RoleAdmin, auth.RoleAdmin)
	if err != nil {
		return loginOut{}, ez.Internal("issue token failed", err)
	}
	m.log.Info("admin login", zap.String("ip", ip))
	return loginOut{Token: tok, ExpiresAt: time.Now().Add(m.jwt.TTL).UTC()}, nil
}
