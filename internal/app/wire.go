//go:build wireinject
// +build wireinject

package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/kedarnelavelli/payment-service/internal/domain/auth"
	"github.com/kedarnelavelli/payment-service/internal/domain/payment"

	// Inbound adapters
	authhttp "github.com/kedarnelavelli/payment-service/internal/adapter/inbound/http/auth"
	paymenthttp "github.com/kedarnelavelli/payment-service/internal/adapter/inbound/http/payment"

	// Ports
	"github.com/kedarnelavelli/payment-service/internal/port/outbound"

	// Infrastructure
	"github.com/kedarnelavelli/payment-service/internal/infra/config"
	"github.com/kedarnelavelli/payment-service/internal/infra/events"

	// Utils
	"github.com/kedarnelavelli/payment-service/internal/utils/logger"
	"github.com/kedarnelavelli/payment-service/internal/utils/metrics"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *goredis.Client
	HTTPClient *http.Client
	Logger     *logger.Logger
	ZapLogger  *zap.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	EventBus   *events.Bus

	// Outbound
	Gateway             outbound.PaymentGatewayPort
	ReconciliationQueue outbound.ReconciliationQueuePort

	// Domains
	AuthDomain    auth.AuthDomain
	PaymentDomain payment.PaymentDomain

	// HTTP Handlers
	LoginHandler   *authhttp.LoginHandler
	PaymentHandler *paymenthttp.PaymentHandler
	RefundHandler  *paymenthttp.RefundHandler
}

// InitializeDependencies creates all dependencies using Wire.
func InitializeDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	wire.Build(
		AppSet,
		wire.Struct(new(Dependencies), "*"),
	)
	return nil, nil, nil
}
