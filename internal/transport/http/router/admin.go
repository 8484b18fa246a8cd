package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	mdw "event-portal/internal/transport/http/middleware"
)

// NewAdminEngine serves /admin/v1 behind one token bucket shared by every
// caller. Modules guard their own groups so the login action can stay public.
func NewAdminEngine(o Options, reg *Registry) *gin.Engine {
	var extra []gin.HandlerFunc
	if o.Limits.RatePerSec > 0 {
		extra = append(extra, mdw.RateLimit(rate.Limit(o.Limits.RatePerSec), o.Limits.Burst))
	}
	r := base(o, extra...)
	reg.MountAllAdmin(r.Group(AdminPrefix))
	return r
}
