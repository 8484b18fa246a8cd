package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "event-portal/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests so the storage backend is not
// flooded. A request waits at most wait for a slot.
func ConcurrencyLimit(max int64, wait time.Duration) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
		err := sem.Acquire(ctx, 1)
		cancel()
		if err != nil {
			c.Header("Retry-After", "1")
			resp.Abort(c, http.StatusServiceUnavailable, resp.MsgServerBusy)
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
