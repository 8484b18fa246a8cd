package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"event-portal/internal/core/config"
	"event-portal/internal/core/server"
	mdw "event-portal/internal/transport/http/middleware"
	resp "event-portal/internal/transport/http/response"
)

const (
	APIPrefix   = "/api/v1"
	AdminPrefix = "/admin/v1"
)

// Options carries what both engines need besides the modules.
type Options struct {
	Log          *zap.Logger
	Limits       config.Limits
	AllowOrigins []string
}

func (o Options) timeout() time.Duration {
	if o.Limits.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(o.Limits.TimeoutSec) * time.Second
}

func base(o Options, extra ...gin.HandlerFunc) *gin.Engine {
	r := server.NewRouter(o.Log, o.AllowOrigins)
	r.Use(mdw.RequestID(), mdw.Metrics(), mdw.AccessLog(o.Log))
	r.Use(extra...)
	if o.Limits.MaxConcurrent > 0 {
		r.Use(mdw.ConcurrencyLimit(o.Limits.MaxConcurrent, time.Second))
	}
	if o.Limits.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(o.Limits.MaxBodyBytes))
	}
	r.Use(mdw.Timeout(o.timeout()))

	r.GET("/health", func(c *gin.Context) { resp.JSON(c, http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())
	r.NoRoute(func(c *gin.Context) {
		resp.Abort(c, http.StatusNotFound, resp.MsgActionNotFound)
	})
	return r
}

// NewAPIEngine serves the public surface under /api/v1, rate limited per IP.
func NewAPIEngine(o Options, reg *Registry) *gin.Engine {
	var extra []gin.HandlerFunc
	if o.Limits.RatePerSec > 0 {
		extra = append(extra, mdw.RateLimitPerIP(rate.Limit(o.Limits.RatePerSec), o.Limits.Burst, 10*time.Minute))
	}
	r := base(o, extra...)
	reg.MountAllAPI(r.Group(APIPrefix))
	return r
}
