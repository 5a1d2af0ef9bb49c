package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kedarnelavelli/payment-service/internal/utils/logger"
)

const (
	// RequestIDHeader is the header key for request ID.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the context key for request ID.
	RequestIDKey = "request_id"
)

// RequestID returns a middleware that tags each request with an id and a
// request-scoped logger carrying it.
func RequestID(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.New(nil)
	}
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		ctx := logger.ContextWithLogger(c.Request.Context(), log.With(RequestIDKey, requestID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the request ID from context.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
