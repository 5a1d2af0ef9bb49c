package paymenthttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kedarnelavelli/payment-service/internal/domain/payment"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/inbound"
)

// RefundHandler handles refund HTTP requests.
type RefundHandler struct {
	domain payment.PaymentDomain
}

// NewRefundHandler creates a new refund handler.
func NewRefundHandler(domain payment.PaymentDomain) *RefundHandler {
	return &RefundHandler{domain: domain}
}

// RegisterRoutes registers refund routes.
func (h *RefundHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payments/:orderId/refund", h.CreateRefund)
}

// CreateRefund handles POST /payments/:orderId/refund.
//
//	@Summary		Refund
//	@Description	Refunds part or all of a captured order. A refund below the order amount leaves it PARTIALLY_REFUNDED.
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			orderId	path		string				true	"Order ID"
//	@Param			request	body		model.RefundRequest	true	"Refund amount"
//	@Success		200		{object}	model.PaymentResponse
//	@Failure		400		{object}	errors.ErrorResponse
//	@Failure		402		{object}	errors.ErrorResponse
//	@Failure		404		{object}	errors.ErrorResponse
//	@Failure		422		{object}	errors.ErrorResponse
//	@Router			/payments/{orderId}/refund [post]
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req model.RefundRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.domain.Refund(c.Request.Context(), orderID, req.Amount)
	if err != nil {
		handleError(c, err, order)
		return
	}

	c.JSON(http.StatusOK, model.NewPaymentResponse(order))
}

// Compile-time check
var _ inbound.RefundHttpPort = (*RefundHandler)(nil)
