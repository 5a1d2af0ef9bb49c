package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// SandboxName is the gateway name recorded by the sandbox gateway.
const SandboxName = "sandbox"

// SandboxConfig controls the sandbox gateway's scripted outcomes.
type SandboxConfig struct {
	// DeclineAmount is declined on every action that carries it.
	DeclineAmount decimal.Decimal
	// TimeoutAmount never answers; the call blocks until its context ends.
	TimeoutAmount decimal.Decimal
}

type sandboxGateway struct {
	cfg SandboxConfig
}

// NewSandboxGateway creates a deterministic in-process gateway for local runs and demos.
func NewSandboxGateway(cfg SandboxConfig) outbound.PaymentGatewayPort {
	return &sandboxGateway{cfg: cfg}
}

func (g *sandboxGateway) Name() string {
	return SandboxName
}

func (g *sandboxGateway) Purchase(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	return g.respond(ctx, "purchase", order.Amount, "")
}

func (g *sandboxGateway) Authorize(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	return g.respond(ctx, "authorize", order.Amount, "")
}

func (g *sandboxGateway) Capture(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	return g.respond(ctx, "capture", order.Amount, refTxnID)
}

func (g *sandboxGateway) Cancel(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	return g.respond(ctx, "cancel", order.Amount, refTxnID)
}

func (g *sandboxGateway) Refund(ctx context.Context, _ *model.PaymentOrder, refTxnID string, amount decimal.Decimal) (*model.GatewayOutcome, error) {
	return g.respond(ctx, "refund", amount, refTxnID)
}

type sandboxResponse struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Operation     string `json:"operation"`
	Amount        string `json:"amount"`
	RefTxnID      string `json:"ref_transaction_id,omitempty"`
	Result        string `json:"result"`
	Message       string `json:"message,omitempty"`
}

func (g *sandboxGateway) respond(ctx context.Context, op string, amount decimal.Decimal, refTxnID string) (*model.GatewayOutcome, error) {
	if !g.cfg.TimeoutAmount.IsZero() && amount.Equal(g.cfg.TimeoutAmount) {
		<-ctx.Done()
		return nil, fmt.Errorf("sandbox %s: %w", op, ctx.Err())
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sandbox %s: %w", op, err)
	}

	resp := sandboxResponse{
		Operation: op,
		Amount:    amount.StringFixed(2),
		RefTxnID:  refTxnID,
		Result:    "approved",
	}
	outcome := &model.GatewayOutcome{Success: true}

	if !g.cfg.DeclineAmount.IsZero() && amount.Equal(g.cfg.DeclineAmount) {
		resp.Result = "declined"
		resp.Message = "This transaction has been declined."
		outcome.Success = false
		outcome.ErrorMessage = resp.Message
	} else {
		resp.TransactionID = "sbx_" + uuid.NewString()
		outcome.TransactionID = resp.TransactionID
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal sandbox response: %w", err)
	}
	outcome.RawResponse = raw
	return outcome, nil
}
