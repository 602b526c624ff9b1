package middleware

import (
	"time"

	"github.com/cyphera/payment-alerts/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLoggingMiddleware logs one line per completed request. Requests to
// quietPaths are logged at debug level so polling them does not flood the
// activity log.
func RequestLoggingMiddleware(quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(startTime)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}

		if _, ok := quiet[c.Request.URL.Path]; ok {
			logger.Log.Debug("Request completed", fields...)
			return
		}
		logger.Log.Info("Request completed", fields...)

		for _, err := range c.Errors {
			logger.Log.Error("Request error",
				zap.String("correlation_id", GetCorrelationID(c)),
				zap.Error(err.Err))
		}
	}
}
