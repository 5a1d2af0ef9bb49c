package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// StripeName is the gateway name recorded for Stripe calls.
const StripeName = "stripe"

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	SecretKey string
	// PaymentMethod is confirmed on purchase and authorize, e.g. pm_card_visa in test mode.
	PaymentMethod string
	// BaseURL overrides the API host.
	BaseURL string
}

// Currencies Stripe bills in whole units.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

type stripeGateway struct {
	api           *client.API
	paymentMethod string
}

// NewStripeGateway creates a gateway backed by Stripe PaymentIntents.
// Authorize holds funds with manual capture; capture, cancel and refund
// reference the PaymentIntent id.
func NewStripeGateway(cfg StripeConfig, httpClient *http.Client) outbound.PaymentGatewayPort {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &stripeGateway{
		api: client.New(cfg.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		paymentMethod: cfg.PaymentMethod,
	}
}

func (g *stripeGateway) Name() string {
	return StripeName
}

func (g *stripeGateway) Purchase(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	params := g.intentParams(ctx, order)
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodAutomatic))

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return stripeFailure("create payment intent", err)
	}
	return intentOutcome(pi, stripe.PaymentIntentStatusSucceeded), nil
}

func (g *stripeGateway) Authorize(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	params := g.intentParams(ctx, order)
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return stripeFailure("create payment intent", err)
	}
	return intentOutcome(pi, stripe.PaymentIntentStatusRequiresCapture), nil
}

func (g *stripeGateway) Capture(ctx context.Context, _ *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Capture(refTxnID, params)
	if err != nil {
		return stripeFailure("capture payment intent", err)
	}
	return intentOutcome(pi, stripe.PaymentIntentStatusSucceeded), nil
}

func (g *stripeGateway) Cancel(ctx context.Context, _ *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Cancel(refTxnID, params)
	if err != nil {
		return stripeFailure("cancel payment intent", err)
	}
	return intentOutcome(pi, stripe.PaymentIntentStatusCanceled), nil
}

func (g *stripeGateway) Refund(ctx context.Context, order *model.PaymentOrder, refTxnID string, amount decimal.Decimal) (*model.GatewayOutcome, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(refTxnID),
		Amount:        stripe.Int64(minorUnits(amount, order.Currency)),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID.String())

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return stripeFailure("create refund", err)
	}

	outcome := &model.GatewayOutcome{RawResponse: rawJSON(r.LastResponse)}
	switch r.Status {
	case stripe.RefundStatusSucceeded, stripe.RefundStatusPending:
		outcome.Success = true
		outcome.TransactionID = r.ID
	default:
		outcome.ErrorMessage = fmt.Sprintf("refund %s", r.Status)
		if r.FailureReason != "" {
			outcome.ErrorMessage += ": " + string(r.FailureReason)
		}
	}
	return outcome, nil
}

func (g *stripeGateway) intentParams(ctx context.Context, order *model.PaymentOrder) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(minorUnits(order.Amount, order.Currency)),
		Currency:           stripe.String(strings.ToLower(order.Currency)),
		PaymentMethod:      stripe.String(g.paymentMethod),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID.String())
	return params
}

// intentOutcome treats the PaymentIntent as approved only in the expected status.
func intentOutcome(pi *stripe.PaymentIntent, want stripe.PaymentIntentStatus) *model.GatewayOutcome {
	outcome := &model.GatewayOutcome{RawResponse: rawJSON(pi.LastResponse)}
	if pi.Status == want {
		outcome.Success = true
		outcome.TransactionID = pi.ID
		return outcome
	}

	outcome.ErrorMessage = fmt.Sprintf("payment intent %s", pi.Status)
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		outcome.ErrorMessage = pi.LastPaymentError.Msg
	}
	return outcome
}

// stripeFailure separates API rejections, which are final declines, from
// errors where the request may not have been processed.
func stripeFailure(op string, err error) (*model.GatewayOutcome, error) {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) || stripeErr.HTTPStatusCode >= http.StatusInternalServerError ||
		stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.Type == stripe.ErrorTypeAPI {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	msg := stripeErr.Msg
	if msg == "" {
		msg = string(stripeErr.Code)
	}
	raw := rawJSON(stripeErr.LastResponse)
	if raw == nil {
		raw, _ = json.Marshal(stripeErr)
	}
	return &model.GatewayOutcome{ErrorMessage: msg, RawResponse: raw}, nil
}

func rawJSON(resp *stripe.APIResponse) []byte {
	if resp == nil {
		return nil
	}
	return resp.RawJSON
}

func minorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
