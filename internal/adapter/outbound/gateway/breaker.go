package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kedarnelavelli/payment-service/internal/model"
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"
	"github.com/kedarnelavelli/payment-service/internal/utils/metrics"
)

// BreakerConfig contains circuit breaker configuration.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// guardedGateway wraps a gateway with a circuit breaker and call metrics.
// Declines are answers, so only transport errors count toward tripping.
type guardedGateway struct {
	next    outbound.PaymentGatewayPort
	breaker *gobreaker.CircuitBreaker[*model.GatewayOutcome]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// WithBreaker guards next with a circuit breaker. While open, calls fail fast
// with outbound.ErrGatewayUnavailable without reaching the gateway.
func WithBreaker(next outbound.PaymentGatewayPort, cfg BreakerConfig, m *metrics.Metrics, logger *zap.Logger) outbound.PaymentGatewayPort {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &guardedGateway{next: next, metrics: m, logger: logger}

	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: g.onStateChange,
	}
	g.breaker = gobreaker.NewCircuitBreaker[*model.GatewayOutcome](settings)
	if m != nil {
		m.SetBreakerState(next.Name(), int(gobreaker.StateClosed))
	}
	return g
}

func (g *guardedGateway) onStateChange(name string, from, to gobreaker.State) {
	g.logger.Warn("gateway circuit breaker state changed",
		zap.String("gateway", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if g.metrics != nil {
		g.metrics.SetBreakerState(name, int(to))
	}
}

// State returns the current breaker state.
func (g *guardedGateway) State() gobreaker.State {
	return g.breaker.State()
}

func (g *guardedGateway) Name() string {
	return g.next.Name()
}

func (g *guardedGateway) Purchase(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	return g.call(model.ActionPurchase, func() (*model.GatewayOutcome, error) {
		return g.next.Purchase(ctx, order)
	})
}

func (g *guardedGateway) Authorize(ctx context.Context, order *model.PaymentOrder) (*model.GatewayOutcome, error) {
	return g.call(model.ActionAuthorize, func() (*model.GatewayOutcome, error) {
		return g.next.Authorize(ctx, order)
	})
}

func (g *guardedGateway) Capture(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	return g.call(model.ActionCapture, func() (*model.GatewayOutcome, error) {
		return g.next.Capture(ctx, order, refTxnID)
	})
}

func (g *guardedGateway) Cancel(ctx context.Context, order *model.PaymentOrder, refTxnID string) (*model.GatewayOutcome, error) {
	return g.call(model.ActionCancel, func() (*model.GatewayOutcome, error) {
		return g.next.Cancel(ctx, order, refTxnID)
	})
}

func (g *guardedGateway) Refund(ctx context.Context, order *model.PaymentOrder, refTxnID string, amount decimal.Decimal) (*model.GatewayOutcome, error) {
	return g.call(model.ActionRefund, func() (*model.GatewayOutcome, error) {
		return g.next.Refund(ctx, order, refTxnID, amount)
	})
}

func (g *guardedGateway) call(action model.PaymentAction, fn func() (*model.GatewayOutcome, error)) (*model.GatewayOutcome, error) {
	start := time.Now()
	outcome, err := g.breaker.Execute(fn)

	result := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = metrics.OutcomeCircuitOpen
		err = fmt.Errorf("%w: %s circuit %s", outbound.ErrGatewayUnavailable, g.next.Name(), g.breaker.State())
	case err != nil:
		result = metrics.OutcomeTransport
	case outcome != nil && !outcome.Success:
		result = metrics.OutcomeDeclined
	}

	if g.metrics != nil {
		g.metrics.RecordGatewayCall(g.next.Name(), action.String(), result, time.Since(start))
	}
	return outcome, err
}
