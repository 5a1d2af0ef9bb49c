package authhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kedarnelavelli/payment-service/internal/domain/auth"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/inbound"
)

// LoginHandler handles operator authentication HTTP requests.
type LoginHandler struct {
	authDomain auth.AuthDomain
}

// NewLoginHandler creates a new login handler.
func NewLoginHandler(authDomain auth.AuthDomain) *LoginHandler {
	return &LoginHandler{authDomain: authDomain}
}

// RegisterRoutes registers auth routes.
func (h *LoginHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

// Login handles POST /auth/login.
//
//	@Summary	Operator login
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		model.LoginRequest	true	"Credentials"
//	@Success	200		{object}	model.TokenResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	401		{object}	errors.ErrorResponse
//	@Router		/auth/login [post]
func (h *LoginHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	resp, err := h.authDomain.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Compile-time check
var _ inbound.AuthHttpPort = (*LoginHandler)(nil)
