package gateway

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kedarnelavelli/payment-service/internal/infra/config"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"github.com/kedarnelavelli/payment-service/internal/utils/metrics"
)

// New builds the configured gateway, guarded by a circuit breaker when enabled.
func New(cfg *config.Config, httpClient *http.Client, m *metrics.Metrics, logger *zap.Logger) (outbound.PaymentGatewayPort, error) {
	var gw outbound.PaymentGatewayPort

	switch cfg.Payment.Gateway {
	case config.GatewayAuthorizeNet:
		anet := cfg.Gateway.AuthorizeNet
		gw = NewAuthorizeNetGateway(AuthorizeNetConfig{
			APILoginID:     anet.APILoginID,
			TransactionKey: anet.TransactionKey,
			Sandbox:        anet.Sandbox,
			Endpoint:       anet.Endpoint,
			CardNumber:     anet.CardNumber,
			CardExpiration: anet.CardExpiration,
		}, httpClient)
	case config.GatewayStripe:
		gw = NewStripeGateway(StripeConfig{
			SecretKey:     cfg.Gateway.Stripe.SecretKey,
			PaymentMethod: cfg.Gateway.Stripe.PaymentMethod,
		}, httpClient)
	case config.GatewaySandbox:
		sandboxCfg, err := parseSandboxConfig(cfg.Gateway.Sandbox)
		if err != nil {
			return nil, err
		}
		gw = NewSandboxGateway(sandboxCfg)
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Payment.Gateway)
	}

	if !cfg.Gateway.Breaker.Enabled {
		return gw, nil
	}

	breakerCfg := DefaultBreakerConfig()
	b := cfg.Gateway.Breaker
	if b.MaxRequests > 0 {
		breakerCfg.MaxRequests = b.MaxRequests
	}
	if b.Interval > 0 {
		breakerCfg.Interval = b.Interval
	}
	if b.Timeout > 0 {
		breakerCfg.Timeout = b.Timeout
	}
	if b.FailureThreshold > 0 {
		breakerCfg.FailureThreshold = b.FailureThreshold
	}

	logger.Info("payment gateway configured",
		zap.String("gateway", gw.Name()),
		zap.Uint32("breaker_failure_threshold", breakerCfg.FailureThreshold),
	)
	return WithBreaker(gw, breakerCfg, m, logger), nil
}

func parseSandboxConfig(cfg config.SandboxConfig) (SandboxConfig, error) {
	var out SandboxConfig
	var err error
	if cfg.DeclineAmount != "" {
		if out.DeclineAmount, err = decimal.NewFromString(cfg.DeclineAmount); err != nil {
			return out, fmt.Errorf("gateway.sandbox.decline_amount: %w", err)
		}
	}
	if cfg.TimeoutAmount != "" {
		if out.TimeoutAmount, err = decimal.NewFromString(cfg.TimeoutAmount); err != nil {
			return out, fmt.Errorf("gateway.sandbox.timeout_amount: %w", err)
		}
	}
	return out, nil
}
