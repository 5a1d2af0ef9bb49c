package inbound

import "github.com/gin-gonic/gin"

// AuthHttpPort defines HTTP handler interface for operator authentication.
type AuthHttpPort interface {
	// Login handles POST /auth/login
	Login(c *gin.Context)
}
