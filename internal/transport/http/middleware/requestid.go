package middleware

import (
	"github.com/gin-gonic/gin"

	"event-portal/pkg/utils"
)

const KeyRequestID = "X-Request-ID"

// RequestID echoes the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" || len(rid) > 128 {
			rid = utils.NewID()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}
