package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
)

// AuthorizeNetName is the gateway name recorded for Authorize.Net calls.
const AuthorizeNetName = "authorize_net"

const (
	authorizeNetSandboxURL    = "https://apitest.authorize.net/xml/v1/request.api"
	authorizeNetProductionURL = "https://api.authorize.net/xml/v1/request.api"

	maxAuthorizeNetResponse = 1 << 20
)

// Authorize.Net transaction types.
const (
	anetAuthCapture      = "authCaptureTransaction"
	anetAuthOnly         = "authOnlyTransaction"
	anetPriorAuthCapture = "priorAuthCaptureTransaction"
	anetVoid             = "voidTransaction"
	anetRefund           = "refundTransaction"
)

// AuthorizeNetConfig holds merchant credentials for the Authorize.Net JSON API.
type AuthorizeNetConfig struct {
	APILoginID     string
	TransactionKey string
	Sandbox        bool
	// Endpoint overrides the environment URL.
	Endpoint       string
	CardNumber     string
	CardExpiration string
}

type authorizeNetGateway struct {
	cfg        AuthorizeNetConfig
	endpoint   string
	httpClient *http.Client
}

// NewAuthorizeNetGateway creates an Authorize.Net gateway using the given HTTP client.
func NewAuthorizeNetGateway(cfg AuthorizeNetConfig, httpClient *http.Client) outbound.PaymentGatewayPort {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = authorizeNetProductionURL
		if cfg.Sandbox {
			endpoint = authorizeNetSandboxURL
		}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &authorizeNetGateway{
		cfg:        cfg,
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

func (g *authorizeNetGateway) Name() string {
	return AuthorizeNetName
}

func (g *authorizeNetGateway) Purchase(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	return g.send(ctx, order, &anetTransactionRequest{
		TransactionType: anetAuthCapture,
		Amount:          formatAmount(order.Amount),
		Payment:         g.testCard(),
	})
}

func (g *authorizeNetGateway) Authorize(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	return g.send(ctx, order, &anetTransactionRequest{
		TransactionType: anetAuthOnly,
		Amount:          formatAmount(order.Amount),
		Payment:         g.testCard(),
	})
}

func (g *authorizeNetGateway) Capture(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	return g.send(ctx, order, &anetTransactionRequest{
		TransactionType: anetPriorAuthCapture,
		RefTransID:      refTxnID,
	})
}

func (g *authorizeNetGateway) Cancel(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	return g.send(ctx, order, &anetTransactionRequest{
		TransactionType: anetVoid,
		RefTransID:      refTxnID,
	})
}

// Refund sends a refund against a settled transaction. Authorize.Net only needs
// the masked card number and a placeholder expiry for referenced refunds.
func (g *authorizeNetGateway) Refund(ctx context.Context, order *model.PaymentOrder, refTxnID string, amount decimal.Decimal) (*model.GatewayOutcome, error) {
	return g.send(ctx, order, &anetTransactionRequest{
		TransactionType: anetRefund,
		Amount:          formatAmount(amount),
		Payment: &anetPayment{CreditCard: anetCreditCard{
			CardNumber:     "XXXX" + lastFour(g.cfg.CardNumber),
			ExpirationDate: "XXXX",
		}},
		RefTransID: refTxnID,
	})
}

func (g *authorizeNetGateway) testCard() *anetPayment {
	return &anetPayment{CreditCard: anetCreditCard{
		CardNumber:     g.cfg.CardNumber,
		ExpirationDate: g.cfg.CardExpiration,
	}}
}

// ===== Wire types =====
// Field order matters: the JSON API validates against the XML schema sequence.

type anetEnvelope struct {
	CreateTransactionRequest anetCreateTransactionRequest `json:"createTransactionRequest"`
}

type anetCreateTransactionRequest struct {
	MerchantAuthentication anetMerchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                     `json:"refId,omitempty"`
	TransactionRequest     *anetTransactionRequest    `json:"transactionRequest"`
}

type anetMerchantAuthentication struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

type anetTransactionRequest struct {
	TransactionType string       `json:"transactionType"`
	Amount          string       `json:"amount,omitempty"`
	Payment         *anetPayment `json:"payment,omitempty"`
	RefTransID      string       `json:"refTransId,omitempty"`
}

type anetPayment struct {
	CreditCard anetCreditCard `json:"creditCard"`
}

type anetCreditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
}

type anetResponse struct {
	TransactionResponse *struct {
		ResponseCode string `json:"responseCode"`
		TransID      string `json:"transId"`
		Errors       []struct {
			ErrorCode string `json:"errorCode"`
			ErrorText string `json:"errorText"`
		} `json:"errors"`
	} `json:"transactionResponse"`
	Messages struct {
		ResultCode string `json:"resultCode"`
		Message    []struct {
			Code string `json:"code"`
			Text string `json:"text"`
		} `json:"message"`
	} `json:"messages"`
}

func (g *authorizeNetGateway) send(ctx context.Context, order *model.PaymentOrder, txnReq *anetTransactionRequest) (*model.GatewayOutcome, error) {
	body, err := json.Marshal(anetEnvelope{CreateTransactionRequest: anetCreateTransactionRequest{
		MerchantAuthentication: anetMerchantAuthentication{
			Name:           g.cfg.APILoginID,
			TransactionKey: g.cfg.TransactionKey,
		},
		RefID:              refID(order),
		TransactionRequest: txnReq,
	}})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", txnReq.TransactionType, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", txnReq.TransactionType, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", txnReq.TransactionType, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthorizeNetResponse))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", txnReq.TransactionType, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", txnReq.TransactionType, resp.StatusCode)
	}

	// The API prefixes JSON bodies with a UTF-8 byte order mark.
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	var parsed anetResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", txnReq.TransactionType, err)
	}
	return parseAuthorizeNetResponse(&parsed, raw), nil
}

// parseAuthorizeNetResponse applies the gateway's result rules: a request-level
// error wins, then responseCode "1" is approval, anything else is a decline.
func parseAuthorizeNetResponse(resp *anetResponse, raw []byte) *model.GatewayOutcome {
	outcome := &model.GatewayOutcome{RawResponse: raw}
	tr := resp.TransactionResponse

	if resp.Messages.ResultCode != "Ok" {
		switch {
		case tr != nil && len(tr.Errors) > 0:
			outcome.ErrorMessage = tr.Errors[0].ErrorText
		case len(resp.Messages.Message) > 0:
			outcome.ErrorMessage = resp.Messages.Message[0].Text
		default:
			outcome.ErrorMessage = "Unknown error"
		}
		return outcome
	}

	if tr != nil && tr.ResponseCode == "1" {
		outcome.Success = true
		outcome.TransactionID = tr.TransID
		return outcome
	}

	outcome.ErrorMessage = "Transaction failed"
	if tr != nil && len(tr.Errors) > 0 {
		outcome.ErrorMessage = tr.Errors[0].ErrorText
	}
	return outcome
}

func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// refID fits the order id into the 20 character refId field.
func refID(order *model.PaymentOrder) string {
	id := order.ID.String()
	if len(id) > 20 {
		id = id[len(id)-20:]
	}
	return id
}

func lastFour(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
