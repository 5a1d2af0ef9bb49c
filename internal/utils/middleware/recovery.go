package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	apperrors "github.com/kedarnelavelli/payment-service/internal/utils/errors"
	"github.com/kedarnelavelli/payment-service/internal/utils/logger"
)

// Recovery returns a middleware that turns panics into a 500 response.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.New(nil)
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered",
					"error", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					RequestIDKey, GetRequestID(c),
					"stack", string(debug.Stack()),
				)
				abortWithError(c, apperrors.Internal(fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
