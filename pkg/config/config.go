package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
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
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FORKLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"FORKLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FORKLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FORKLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FORKLINE_DB_DSN"`
	Driver string `envconfig:"FORKLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FORKLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"FORKLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FORKLINE_DB_USER"`
	LegacyPassword string `envconfig:"FORKLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FORKLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FORKLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FORKLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FORKLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FORKLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FORKLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional: when neither URL nor Address is set the API runs
// without Redis and the features that need it (rate limiting, idempotency)
// degrade to no-ops.
type RedisConfig struct {
	URL          string        `envconfig:"FORKLINE_REDIS_URL"`
	Address      string        `envconfig:"FORKLINE_REDIS_ADDR"`
	Password     string        `envconfig:"FORKLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FORKLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FORKLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FORKLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FORKLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FORKLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FORKLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FORKLINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FORKLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FORKLINE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// CheckoutConfig carries the fee policy applied at order placement.
// Tax is a flat rate and the delivery fee is flat per order; neither is
// recomputed per jurisdiction or distance.
type CheckoutConfig struct {
	TaxRate          string        `envconfig:"FORKLINE_CHECKOUT_TAX_RATE" default:"0.08"`
	DeliveryFee      string        `envconfig:"FORKLINE_CHECKOUT_DELIVERY_FEE" default:"4.50"`
	ScheduleHorizon  time.Duration `envconfig:"FORKLINE_CHECKOUT_SCHEDULE_HORIZON" default:"168h"`
	OrderNumberAlias string        `envconfig:"FORKLINE_CHECKOUT_ORDER_PREFIX" default:"FO"`
}

func (c CheckoutConfig) validate() error {
	if _, err := decimal.NewFromString(c.TaxRate); err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", c.TaxRate, err)
	}
	if _, err := decimal.NewFromString(c.DeliveryFee); err != nil {
		return fmt.Errorf("invalid delivery fee %q: %w", c.DeliveryFee, err)
	}
	return nil
}

// TaxRateDecimal returns the configured flat tax rate.
func (c CheckoutConfig) TaxRateDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DeliveryFeeDecimal returns the configured flat delivery fee.
func (c CheckoutConfig) DeliveryFeeDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type RateLimitConfig struct {
	OrderWindow    time.Duration `envconfig:"FORKLINE_RATE_LIMIT_ORDER_WINDOW" default:"1m"`
	OrderUserLimit int           `envconfig:"FORKLINE_RATE_LIMIT_ORDER_USER_LIMIT" default:"5"`
	OrderIPLimit   int           `envconfig:"FORKLINE_RATE_LIMIT_ORDER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FORKLINE_AUTO_MIGRATE" default:"false"`
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
