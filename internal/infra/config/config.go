package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported payment gateways.
const (
	GatewaySandbox      = "sandbox"
	GatewayAuthorizeNet = "authorize_net"
	GatewayStripe       = "stripe"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	HTTPClient  HTTPClientConfig  `mapstructure:"http_client"`
	Log         LogConfig         `mapstructure:"log"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Payment     PaymentConfig     `mapstructure:"payment"`
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// Driver is "postgres", "sqlite" or "memory". Memory keeps orders in
	// process and is meant for demos against the sandbox gateway.
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
// An empty address disables redis; locks then stay in-process.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	// Connection pool settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	// Timeout settings
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`

	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds operator authentication configuration.
type AuthConfig struct {
	JWTSecret         string           `mapstructure:"jwt_secret"`
	AccessTokenExpiry time.Duration    `mapstructure:"access_token_expiry"`
	Operators         []OperatorConfig `mapstructure:"operators"`
}

// OperatorConfig is one operator allowed to call the payment API.
type OperatorConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"` // bcrypt
}

// PaymentConfig holds payment lifecycle configuration.
type PaymentConfig struct {
	Gateway        string        `mapstructure:"gateway"`
	GatewayTimeout time.Duration `mapstructure:"gateway_timeout"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
}

// GatewayConfig holds per-gateway settings.
type GatewayConfig struct {
	AuthorizeNet AuthorizeNetConfig `mapstructure:"authorize_net"`
	Stripe       StripeConfig       `mapstructure:"stripe"`
	Sandbox      SandboxConfig      `mapstructure:"sandbox"`
	Breaker      BreakerConfig      `mapstructure:"breaker"`
}

// AuthorizeNetConfig holds Authorize.Net merchant credentials.
type AuthorizeNetConfig struct {
	APILoginID     string `mapstructure:"api_login_id"`
	TransactionKey string `mapstructure:"transaction_key"`
	Sandbox        bool   `mapstructure:"sandbox"`
	// Endpoint overrides the sandbox/production URL when set.
	Endpoint string `mapstructure:"endpoint"`
	// Card data sent with purchase and authorize. Orders carry no payment
	// instrument, so a merchant-level test card is used.
	CardNumber     string `mapstructure:"card_number"`
	CardExpiration string `mapstructure:"card_expiration"`
}

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	PaymentMethod string `mapstructure:"payment_method"`
}

// SandboxConfig controls the deterministic sandbox gateway.
type SandboxConfig struct {
	DeclineAmount string `mapstructure:"decline_amount"`
	TimeoutAmount string `mapstructure:"timeout_amount"`
}

// BreakerConfig holds circuit breaker settings for the gateway.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// IdempotencyConfig holds Idempotency-Key replay configuration.
type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from the given file, or from the default
// search paths when file is empty.
func LoadFrom(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/payment-service")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("PAYMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Secrets
	if secret := os.Getenv("PAYMENT_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("PAYMENT_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("PAYMENT_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if key := os.Getenv("PAYMENT_AUTHORIZENET_TRANSACTION_KEY"); key != "" {
		cfg.Gateway.AuthorizeNet.TransactionKey = key
	}
	if key := os.Getenv("PAYMENT_STRIPE_SECRET_KEY"); key != "" {
		cfg.Gateway.Stripe.SecretKey = key
	}

	return &cfg, nil
}

// Validate checks settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	switch c.Payment.Gateway {
	case GatewaySandbox:
	case GatewayAuthorizeNet:
		if c.Gateway.AuthorizeNet.APILoginID == "" || c.Gateway.AuthorizeNet.TransactionKey == "" {
			return errors.New("gateway.authorize_net requires api_login_id and transaction_key")
		}
	case GatewayStripe:
		if c.Gateway.Stripe.SecretKey == "" {
			return errors.New("gateway.stripe.secret_key is required")
		}
	default:
		return fmt.Errorf("unknown payment.gateway %q", c.Payment.Gateway)
	}
	if c.Payment.GatewayTimeout <= 0 {
		return errors.New("payment.gateway_timeout must be positive")
	}
	if c.Payment.LockTTL <= c.Payment.GatewayTimeout {
		return fmt.Errorf("payment.lock_ttl (%s) must exceed payment.gateway_timeout (%s)",
			c.Payment.LockTTL, c.Payment.GatewayTimeout)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "payments")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "payments.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", false)

	// Redis defaults
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 10*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 0)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Auth defaults
	v.SetDefault("auth.access_token_expiry", time.Hour)

	// Payment defaults
	v.SetDefault("payment.gateway", GatewaySandbox)
	v.SetDefault("payment.gateway_timeout", 30*time.Second)
	v.SetDefault("payment.lock_ttl", 60*time.Second)

	// Gateway defaults
	v.SetDefault("gateway.authorize_net.sandbox", true)
	v.SetDefault("gateway.authorize_net.card_number", "4111111111111111")
	v.SetDefault("gateway.authorize_net.card_expiration", "2038-12")
	v.SetDefault("gateway.stripe.payment_method", "pm_card_visa")
	v.SetDefault("gateway.sandbox.decline_amount", "13.13")
	v.SetDefault("gateway.sandbox.timeout_amount", "408.08")
	v.SetDefault("gateway.breaker.enabled", true)
	v.SetDefault("gateway.breaker.max_requests", 1)
	v.SetDefault("gateway.breaker.interval", time.Minute)
	v.SetDefault("gateway.breaker.timeout", 30*time.Second)
	v.SetDefault("gateway.breaker.failure_threshold", 5)

	// Idempotency defaults
	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl", 24*time.Hour)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
