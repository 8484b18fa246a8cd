package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "event-portal/internal/transport/http/response"
)

// MaxBodyBytes rejects bodies above n. A declared Content-Length is checked
// up front; chunked bodies fail while binding.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, http.StatusRequestEntityTooLarge, resp.MsgBodyTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
