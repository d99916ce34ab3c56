package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yourname/aquaguide/internal"
)

// RequestIDMiddleware tags every request with a correlation id (the caller's X-Request-ID when
// present) and writes one access log line once the handler chain returns.
func RequestIDMiddleware(logger internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)
		start := time.Now()
		c.Next()
		logger.Infof("[request_id=%s] %s %s %d %s", reqID, c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
