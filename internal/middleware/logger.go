package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerMiddleware logs one line per request. The participant header is
// included when present so a conversation's traffic can be traced.
func LoggerMiddleware(zapLogger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
		}
		if pid := c.GetHeader("X-Participant-Id"); pid != "" {
			fields = append(fields, zap.String("participant_id", pid))
		}

		if c.Writer.Status() >= 500 {
			zapLogger.Error("HTTP request", fields...)
		} else {
			zapLogger.Info("HTTP request", fields...)
		}
	}
}
