package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/fra-claims/internal/common"
)

const headerRequestID = "X-Request-ID"

// RequestID tags every request with an id, reusing a well-formed inbound one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		common.LoggerFrom(c.Request.Context(), logger).Log(c.Request.Context(), level, "http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
