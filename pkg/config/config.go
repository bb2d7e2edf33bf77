package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App        AppConfig
	Backend    BackendConfig
	Cart       CartConfig
	GuestStore GuestStoreConfig
	DB         DBConfig
	Redis      RedisConfig
	Session    SessionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the commerce REST API that owns products, carts, vouchers and orders.
type BackendConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_URL" default:"http://localhost:3618"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"10s"`
}

type CartConfig struct {
	Currency        string          `envconfig:"STOREFRONT_CURRENCY" default:"VND"`
	ShippingFee     decimal.Decimal `envconfig:"STOREFRONT_SHIPPING_FEE" default:"0"`
	CatalogTTL      time.Duration   `envconfig:"STOREFRONT_CATALOG_TTL" default:"5m"`
	VoucherTTL      time.Duration   `envconfig:"STOREFRONT_VOUCHER_TTL" default:"1m"`
	VoucherTimezone string          `envconfig:"STOREFRONT_VOUCHER_TZ" default:"Asia/Ho_Chi_Minh"`
}

// GuestStoreConfig selects where guest carts are persisted.
type GuestStoreConfig struct {
	Driver      string        `envconfig:"STOREFRONT_GUEST_STORE" default:"redis"`
	TTL         time.Duration `envconfig:"STOREFRONT_GUEST_CART_TTL" default:"720h"`
	AutoMigrate bool          `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig controls how long an attached access token is kept for a storefront session
// and when idle in-memory session state is swept.
type SessionConfig struct {
	TokenTTL      time.Duration `envconfig:"STOREFRONT_SESSION_TOKEN_TTL" default:"720h"`
	IdleTTL       time.Duration `envconfig:"STOREFRONT_SESSION_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"STOREFRONT_SWEEP_INTERVAL" default:"1m"`
	ToastLimit    int           `envconfig:"STOREFRONT_TOAST_LIMIT" default:"20"`
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("%s is required", EnvAPIURL)
	}
	if c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	if _, err := enums.ParseCurrency(c.Cart.Currency); err != nil {
		return fmt.Errorf("%s: %w", EnvCurrency, err)
	}
	if c.Cart.ShippingFee.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvShippingFee)
	}

	switch c.GuestStore.Normalized() {
	case GuestStoreRedis:
	case GuestStorePostgres, GuestStoreSQLite:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required for guest store %q", EnvDBDSN, c.GuestStore.Driver)
		}
	default:
		return fmt.Errorf("unsupported guest store %q", c.GuestStore.Driver)
	}
	return nil
}

// Normalized returns the lower-cased guest store driver.
func (g GuestStoreConfig) Normalized() string {
	return strings.ToLower(strings.TrimSpace(g.Driver))
}
