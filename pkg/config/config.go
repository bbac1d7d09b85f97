package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Tax          TaxConfig
	Gateway      GatewayConfig
	Shipping     ShippingConfig
	Notify       NotifyConfig
	Payouts      PayoutConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ARTMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"ARTMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ARTMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARTMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ARTMARKET_DB_DSN"`
	Driver string `envconfig:"ARTMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ARTMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"ARTMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ARTMARKET_DB_USER"`
	LegacyPassword string `envconfig:"ARTMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"ARTMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"ARTMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ARTMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ARTMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ARTMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARTMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ARTMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ARTMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"ARTMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARTMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARTMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARTMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARTMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARTMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARTMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ARTMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ARTMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ARTMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CheckoutConfig struct {
	// HoldTTL bounds how long a unique artwork stays reserved for one order.
	HoldTTL            time.Duration `envconfig:"ARTMARKET_CHECKOUT_HOLD_TTL" default:"15m"`
	RequireAuth        bool          `envconfig:"ARTMARKET_CHECKOUT_REQUIRE_AUTH" default:"false"`
	PendingOrderTTL    time.Duration `envconfig:"ARTMARKET_CHECKOUT_PENDING_ORDER_TTL" default:"24h"`
	IdempotencyTTL     time.Duration `envconfig:"ARTMARKET_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
	SignatureTolerance time.Duration `envconfig:"ARTMARKET_WEBHOOK_SIGNATURE_TOLERANCE" default:"5m"`
}

type TaxConfig struct {
	SellerCountry    string        `envconfig:"ARTMARKET_TAX_SELLER_COUNTRY" default:"DE"`
	ValidatorBaseURL string        `envconfig:"ARTMARKET_TAX_VALIDATOR_BASE_URL" required:"true"`
	ValidatorTimeout time.Duration `envconfig:"ARTMARKET_TAX_VALIDATOR_TIMEOUT" default:"5s"`
	ValidationTTL    time.Duration `envconfig:"ARTMARKET_TAX_VALIDATION_CACHE_TTL" default:"1h"`
}

type GatewayConfig struct {
	BaseURL       string        `envconfig:"ARTMARKET_GATEWAY_BASE_URL" required:"true"`
	APIKey        string        `envconfig:"ARTMARKET_GATEWAY_API_KEY" required:"true"`
	WebhookSecret string        `envconfig:"ARTMARKET_GATEWAY_WEBHOOK_SECRET" required:"true"`
	Timeout       time.Duration `envconfig:"ARTMARKET_GATEWAY_TIMEOUT" default:"10s"`
}

type ShippingConfig struct {
	BaseURL       string        `envconfig:"ARTMARKET_SHIPPING_BASE_URL"`
	APIKey        string        `envconfig:"ARTMARKET_SHIPPING_API_KEY"`
	Timeout       time.Duration `envconfig:"ARTMARKET_SHIPPING_TIMEOUT" default:"8s"`
	FlatRateCents int64         `envconfig:"ARTMARKET_SHIPPING_FLAT_RATE_CENTS" default:"1500"`
}

// NotifyConfig points at the external messaging service. An empty base URL
// disables buyer notifications.
type NotifyConfig struct {
	BaseURL string        `envconfig:"ARTMARKET_NOTIFY_BASE_URL"`
	APIKey  string        `envconfig:"ARTMARKET_NOTIFY_API_KEY"`
	Timeout time.Duration `envconfig:"ARTMARKET_NOTIFY_TIMEOUT" default:"5s"`
}

type PayoutConfig struct {
	PlatformFeeBps int64 `envconfig:"ARTMARKET_PAYOUT_PLATFORM_FEE_BPS" default:"3000"`
	DelayDays      int   `envconfig:"ARTMARKET_PAYOUT_DELAY_DAYS" default:"7"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ARTMARKET_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"ARTMARKET_CRON_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ARTMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ARTMARKET_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
