package config

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	GuestStoreRedis    = "redis"
	GuestStorePostgres = "postgres"
	GuestStoreSQLite   = "sqlite"
)

const (
	EnvAppEnv      = "STOREFRONT_APP_ENV"
	EnvPort        = "STOREFRONT_APP_PORT"
	EnvAPIURL      = "STOREFRONT_API_URL"
	EnvCurrency    = "STOREFRONT_CURRENCY"
	EnvShippingFee = "STOREFRONT_SHIPPING_FEE"
	EnvGuestStore  = "STOREFRONT_GUEST_STORE"
	EnvDBDSN       = "STOREFRONT_DB_DSN"
	EnvRedisURL    = "STOREFRONT_REDIS_URL"
	EnvRedisAddr   = "STOREFRONT_REDIS_ADDR"
	EnvSessionTTL  = "STOREFRONT_SESSION_TOKEN_TTL"
	EnvCatalogTTL  = "STOREFRONT_CATALOG_TTL"
	EnvLogLevel    = "STOREFRONT_LOG_LEVEL"
)
