package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kedarnelavelli/payment-service/internal/utils/logger"
)

// Logging returns a middleware that writes one access log line per request.
func Logging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if requestID := GetRequestID(c); requestID != "" {
			attrs = append(attrs, RequestIDKey, requestID)
		}
		if operator := GetOperator(c); operator != "" {
			attrs = append(attrs, OperatorKey, operator)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		msg := "HTTP Request"
		switch {
		case status >= 500:
			log.Error(msg, attrs...)
		case status >= 400:
			log.Warn(msg, attrs...)
		default:
			log.Info(msg, attrs...)
		}
	}
}
