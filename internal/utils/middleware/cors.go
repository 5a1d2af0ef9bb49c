package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns a CORS middleware allowing the given origins.
func CORS(allowOrigins []string) gin.HandlerFunc {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	return cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", AuthorizationHeader, RequestIDHeader, IdempotencyKeyHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader, IdempotentReplayHeader},
		MaxAge:        12 * time.Hour,
	})
}
