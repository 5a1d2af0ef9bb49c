package paymenthttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kedarnelavelli/payment-service/internal/domain/payment"
	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/inbound"
)

// PaymentHandler handles payment lifecycle HTTP requests.
type PaymentHandler struct {
	domain payment.PaymentDomain
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(domain payment.PaymentDomain) *PaymentHandler {
	return &PaymentHandler{domain: domain}
}

// RegisterRoutes registers payment routes.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/purchase", h.Purchase)
		payments.POST("/authorize", h.Authorize)
		payments.POST("/:orderId/capture", h.Capture)
		payments.POST("/:orderId/cancel", h.Cancel)
		payments.GET("/:orderId", h.GetPayment)
	}
}

// Purchase handles POST /payments/purchase.
//
//	@Summary		Purchase
//	@Description	Creates an order and authorizes and captures it in one gateway call.
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Idempotency-Key	header		string						false	"Replay key"
//	@Param			request			body		model.CreatePaymentRequest	true	"Amount and currency"
//	@Success		201				{object}	model.PaymentResponse
//	@Failure		400				{object}	errors.ErrorResponse
//	@Failure		402				{object}	errors.ErrorResponse
//	@Failure		502				{object}	errors.ErrorResponse
//	@Router			/payments/purchase [post]
func (h *PaymentHandler) Purchase(c *gin.Context) {
	var req model.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.domain.Purchase(c.Request.Context(), req.Amount, req.Currency)
	if err != nil {
		handleError(c, err, order)
		return
	}

	c.JSON(http.StatusCreated, model.NewPaymentResponse(order))
}

// Authorize handles POST /payments/authorize.
//
//	@Summary		Authorize
//	@Description	Creates an order and places a hold for its amount.
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Idempotency-Key	header		string						false	"Replay key"
//	@Param			request			body		model.CreatePaymentRequest	true	"Amount and currency"
//	@Success		201				{object}	model.PaymentResponse
//	@Failure		400				{object}	errors.ErrorResponse
//	@Failure		402				{object}	errors.ErrorResponse
//	@Failure		502				{object}	errors.ErrorResponse
//	@Router			/payments/authorize [post]
func (h *PaymentHandler) Authorize(c *gin.Context) {
	var req model.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.domain.Authorize(c.Request.Context(), req.Amount, req.Currency)
	if err != nil {
		handleError(c, err, order)
		return
	}

	c.JSON(http.StatusCreated, model.NewPaymentResponse(order))
}

// Capture handles POST /payments/:orderId/capture.
//
//	@Summary	Capture
//	@Tags		Payment
//	@Produce	json
//	@Security	BearerAuth
//	@Param		orderId	path		string	true	"Order ID"
//	@Success	200		{object}	model.PaymentResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	404		{object}	errors.ErrorResponse
//	@Failure	409		{object}	errors.ErrorResponse
//	@Failure	422		{object}	errors.ErrorResponse
//	@Router		/payments/{orderId}/capture [post]
func (h *PaymentHandler) Capture(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.domain.Capture(c.Request.Context(), orderID)
	if err != nil {
		handleError(c, err, order)
		return
	}

	c.JSON(http.StatusOK, model.NewPaymentResponse(order))
}

// Cancel handles POST /payments/:orderId/cancel.
//
//	@Summary	Cancel
//	@Tags		Payment
//	@Produce	json
//	@Security	BearerAuth
//	@Param		orderId	path		string	true	"Order ID"
//	@Success	200		{object}	model.PaymentResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	404		{object}	errors.ErrorResponse
//	@Failure	409		{object}	errors.ErrorResponse
//	@Router		/payments/{orderId}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.domain.Cancel(c.Request.Context(), orderID)
	if err != nil {
		handleError(c, err, order)
		return
	}

	c.JSON(http.StatusOK, model.NewPaymentResponse(order))
}

// GetPayment handles GET /payments/:orderId.
//
//	@Summary	Order details
//	@Tags		Payment
//	@Produce	json
//	@Security	BearerAuth
//	@Param		orderId	path		string	true	"Order ID"
//	@Success	200		{object}	model.PaymentDetailsResponse
//	@Failure	404		{object}	errors.ErrorResponse
//	@Router		/payments/{orderId} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	order, err := h.domain.GetOrder(ctx, orderID)
	if err != nil {
		handleError(c, err, nil)
		return
	}

	txns, err := h.domain.ListTransactions(ctx, orderID)
	if err != nil {
		handleError(c, err, nil)
		return
	}
	if txns == nil {
		txns = []*model.PaymentTransaction{}
	}

	next := payment.NextActions(order.Status)
	if next == nil {
		next = []model.PaymentAction{}
	}

	c.JSON(http.StatusOK, &model.PaymentDetailsResponse{
		PaymentResponse: *model.NewPaymentResponse(order),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Transactions:    txns,
		NextActions:     next,
	})
}

// Compile-time check
var _ inbound.PaymentHttpPort = (*PaymentHandler)(nil)
