package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"event-portal/internal/core/logger"
)

// NewRouter returns a bare engine with panic recovery and CORS. A recovered
// panic is answered with the standard JSON envelope.
func NewRouter(l *zap.Logger, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"data":    nil,
			"error":   "internal server error",
		})
	}))
	r.Use(cors.New(corsConfig(allowOrigins)))
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("Authorization", "X-Request-ID")
	cfg.AddExposeHeaders("X-Request-ID")
	return cfg
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration, l *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20,
	}
	if l != nil {
		if el, err := logger.ToStdLogger(l, zapcore.WarnLevel); err == nil {
			srv.ErrorLog = el
		}
	}
	return srv
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
