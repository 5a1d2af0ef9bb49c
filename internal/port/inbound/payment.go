package inbound

import "github.com/gin-gonic/gin"

// PaymentHttpPort defines HTTP handler interface for payment lifecycle operations.
type PaymentHttpPort interface {
	// Purchase handles POST /payments/purchase
	// Creates an order and charges it in one step.
	Purchase(c *gin.Context)

	// Authorize handles POST /payments/authorize
	// Creates an order and places a hold for its amount.
	Authorize(c *gin.Context)

	// Capture handles POST /payments/:orderId/capture
	Capture(c *gin.Context)

	// Cancel handles POST /payments/:orderId/cancel
	Cancel(c *gin.Context)

	// GetPayment handles GET /payments/:orderId
	// Returns the order with its ledger and next legal actions.
	GetPayment(c *gin.Context)
}

// RefundHttpPort defines HTTP handler interface for refund operations.
type RefundHttpPort interface {
	// CreateRefund handles POST /payments/:orderId/refund
	CreateRefund(c *gin.Context)
}
