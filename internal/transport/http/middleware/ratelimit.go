package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "event-portal/internal/transport/http/response"
)

// RateLimit is one token bucket shared by every caller.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		tooMany(c)
	}
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitPerIP keeps a bucket per client address. Buckets idle for more
// than idleTTL are evicted during later requests.
func RateLimitPerIP(rps rate.Limit, burst int, idleTTL time.Duration) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastSweep = time.Now()
	)
	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) > idleTTL {
			for k, v := range visitors {
				if now.Sub(v.seen) > idleTTL {
					delete(visitors, k)
				}
			}
			lastSweep = now
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{lim: rate.NewLimiter(rps, burst)}
			visitors[ip] = v
		}
		v.seen = now
		allowed := v.lim.AllowN(now, 1)
		mu.Unlock()

		if allowed {
			c.Next()
			return
		}
		tooMany(c)
	}
}

func tooMany(c *gin.Context) {
	c.Header("Retry-After", "1")
	resp.Abort(c, http.StatusTooManyRequests, resp.MsgTooManyRequests)
}
