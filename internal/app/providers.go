package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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

	// Outbound adapters
	authadapter "github.com/kedarnelavelli/payment-service/internal/adapter/outbound/auth"
	"github.com/kedarnelavelli/payment-service/internal/adapter/outbound/gateway"
	"github.com/kedarnelavelli/payment-service/internal/adapter/outbound/memory"
	"github.com/kedarnelavelli/payment-service/internal/adapter/outbound/postgres"
	redisadapter "github.com/kedarnelavelli/payment-service/internal/adapter/outbound/redis"

	// Infrastructure
	"github.com/kedarnelavelli/payment-service/internal/infra/cache"
	"github.com/kedarnelavelli/payment-service/internal/infra/config"
	"github.com/kedarnelavelli/payment-service/internal/infra/database"
	"github.com/kedarnelavelli/payment-service/internal/infra/events"
	"github.com/kedarnelavelli/payment-service/internal/infra/httpclient"

	// Utils
	"github.com/kedarnelavelli/payment-service/internal/utils/logger"
	"github.com/kedarnelavelli/payment-service/internal/utils/metrics"
)

const metricsNamespace = "payment"

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideLogger,
	ProvideZapLogger,
	ProvideRegistry,
	ProvideMetrics,
)

// ProvideDatabase opens the configured database. The memory driver has no
// database and yields nil.
func ProvideDatabase(cfg *config.Config, zapLog *zap.Logger) (*gorm.DB, func(), error) {
	if cfg.Database.Driver == "memory" {
		zapLog.Warn("using in-memory payment storage, orders are lost on restart")
		return nil, func() {}, nil
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
	}

	cleanup := func() {
		if err := database.Close(db); err != nil {
			zapLog.Warn("close database", zap.Error(err))
		}
	}
	return db, cleanup, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional: an empty address
// or a failed ping yields nil and the in-process fallbacks are used.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (*goredis.Client, func()) {
	if cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		zapLog.Warn("Redis connection failed, continuing without redis", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

// ProvideLogger creates a logger instance.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates a zap logger instance.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideHTTPClient creates a shared HTTP client with connection pooling.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(metricsNamespace, reg)
}

// ===== Payment Domain Providers =====

// PaymentSet provides payment domain dependencies.
var PaymentSet = wire.NewSet(
	ProvidePaymentOrderDB,
	ProvidePaymentLedger,
	ProvideOrderLocker,
	ProvideReconciliationQueue,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvidePaymentGateway,
	ProvidePaymentDomain,
)

// ProvidePaymentOrderDB selects the order store for the configured driver.
func ProvidePaymentOrderDB(db *gorm.DB) outbound.PaymentOrderDatabasePort {
	if db == nil {
		return memory.NewPaymentOrderStore()
	}
	return postgres.NewPaymentOrderAdapter(db)
}

// ProvidePaymentLedger selects the ledger for the configured driver.
func ProvidePaymentLedger(db *gorm.DB) outbound.PaymentLedgerPort {
	if db == nil {
		return memory.NewPaymentLedger()
	}
	return postgres.NewPaymentLedgerAdapter(db)
}

// ProvideOrderLocker uses a redis lock when redis is available so that
// several replicas exclude each other.
func ProvideOrderLocker(cfg *config.Config, client *goredis.Client, zapLog *zap.Logger) outbound.OrderLockPort {
	if client == nil {
		return memory.NewOrderLocker()
	}
	return redisadapter.NewOrderLocker(client, cfg.Payment.LockTTL, zapLog)
}

// ProvideReconciliationQueue creates the queue fed by reconciliation events.
func ProvideReconciliationQueue(client *goredis.Client) outbound.ReconciliationQueuePort {
	if client == nil {
		return memory.NewReconciliationQueue()
	}
	return redisadapter.NewReconciliationQueue(client)
}

// ProvideEventBus creates the event bus with the payment handlers registered.
func ProvideEventBus(
	m *metrics.Metrics,
	queue outbound.ReconciliationQueuePort,
	zapLog *zap.Logger,
) *events.Bus {
	bus := events.NewBus(zapLog)
	registerEventHandlers(bus, m, queue, zapLog)
	return bus
}

// ProvideEventPublisher exposes the bus as the domain's publisher port.
func ProvideEventPublisher(bus *events.Bus) outbound.EventPublisherPort {
	return bus
}

// ProvidePaymentGateway creates the configured payment gateway.
func ProvidePaymentGateway(
	cfg *config.Config,
	httpClient *http.Client,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) (outbound.PaymentGatewayPort, error) {
	return gateway.New(cfg, httpClient, m, zapLog)
}

// ProvidePaymentDomain creates the payment domain.
func ProvidePaymentDomain(
	cfg *config.Config,
	orderDB outbound.PaymentOrderDatabasePort,
	ledger outbound.PaymentLedgerPort,
	gw outbound.PaymentGatewayPort,
	locker outbound.OrderLockPort,
	publisher outbound.EventPublisherPort,
	zapLog *zap.Logger,
) payment.PaymentDomain {
	domainCfg := payment.DefaultConfig()
	if cfg.Payment.GatewayTimeout > 0 {
		domainCfg.GatewayTimeout = cfg.Payment.GatewayTimeout
	}
	return payment.NewPaymentDomain(orderDB, ledger, gw, locker, publisher, domainCfg, zapLog)
}

// ===== Auth Domain Providers =====

// AuthSet provides auth domain dependencies.
var AuthSet = wire.NewSet(
	ProvideJWTManager,
	ProvideCredentialVerifier,
	ProvideAuthDomain,
)

// ProvideJWTManager creates the JWT manager.
func ProvideJWTManager(cfg *config.Config) outbound.JWTPort {
	return authadapter.NewJWTManager(&authadapter.JWTConfig{
		Secret:            cfg.Auth.JWTSecret,
		AccessTokenExpiry: cfg.Auth.AccessTokenExpiry,
	})
}

// ProvideCredentialVerifier creates the operator credential verifier.
func ProvideCredentialVerifier(cfg *config.Config) outbound.CredentialVerifierPort {
	operators := make(map[string]string, len(cfg.Auth.Operators))
	for _, op := range cfg.Auth.Operators {
		operators[op.Username] = op.PasswordHash
	}
	return authadapter.NewCredentialVerifier(operators)
}

// ProvideAuthDomain creates the auth domain.
func ProvideAuthDomain(
	credentials outbound.CredentialVerifierPort,
	jwt outbound.JWTPort,
	zapLog *zap.Logger,
) auth.AuthDomain {
	return auth.NewAuthDomain(credentials, jwt, zapLog)
}

// ===== HTTP Handler Providers =====

// HandlerSet provides HTTP handlers.
var HandlerSet = wire.NewSet(
	paymenthttp.NewPaymentHandler,
	paymenthttp.NewRefundHandler,
	authhttp.NewLoginHandler,
)

// ===== Combined Sets =====

// AppSet provides all application dependencies.
var AppSet = wire.NewSet(
	InfraSet,
	PaymentSet,
	AuthSet,
	HandlerSet,
)
