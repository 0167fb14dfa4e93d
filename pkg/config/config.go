package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix scopes every environment variable read by Load.
const EnvPrefix = "VELVETSOUK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Cart         CartConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

// Load reads the full configuration from the environment. The result is passed
// explicitly into constructors at startup; nothing reads configuration lazily.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Reload re-reads the environment and returns a fresh snapshot.
func Reload() (*Config, error) {
	return Load()
}

type AppConfig struct {
	Env          string `envconfig:"VELVETSOUK_APP_ENV" required:"true"`
	Port         string `envconfig:"VELVETSOUK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VELVETSOUK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELVETSOUK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VELVETSOUK_DB_DSN"`
	Driver string `envconfig:"VELVETSOUK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VELVETSOUK_DB_HOST"`
	Port     int    `envconfig:"VELVETSOUK_DB_PORT" default:"5432"`
	User     string `envconfig:"VELVETSOUK_DB_USER"`
	Password string `envconfig:"VELVETSOUK_DB_PASSWORD"`
	Name     string `envconfig:"VELVETSOUK_DB_NAME"`
	SSLMode  string `envconfig:"VELVETSOUK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VELVETSOUK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VELVETSOUK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VELVETSOUK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VELVETSOUK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELVETSOUK_REDIS_URL"`
	Address      string        `envconfig:"VELVETSOUK_REDIS_ADDR"`
	Password     string        `envconfig:"VELVETSOUK_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELVETSOUK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELVETSOUK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELVETSOUK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELVETSOUK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELVETSOUK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELVETSOUK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VELVETSOUK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VELVETSOUK_JWT_ISSUER" default:"velvetsouk"`
	ExpirationMinutes int    `envconfig:"VELVETSOUK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig replaces the legacy site-settings document: tax rate, shipping
// and currency are explicit startup configuration, reloadable on demand.
type PricingConfig struct {
	TaxRate               string `envconfig:"VELVETSOUK_PRICING_TAX_RATE" default:"0.08"`
	ShippingFlatCents     int    `envconfig:"VELVETSOUK_PRICING_SHIPPING_FLAT_CENTS" default:"599"`
	FreeShippingOverCents int    `envconfig:"VELVETSOUK_PRICING_FREE_SHIPPING_OVER_CENTS" default:"10000"`
	Currency              string `envconfig:"VELVETSOUK_PRICING_CURRENCY" default:"USD"`
}

// TaxRateDecimal returns the configured tax rate as a decimal fraction.
func (p PricingConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (p PricingConfig) validate() error {
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", p.TaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate %q out of range [0,1]", p.TaxRate)
	}
	if p.ShippingFlatCents < 0 {
		return fmt.Errorf("shipping flat cents must be non-negative")
	}
	return nil
}

type CartConfig struct {
	TTL time.Duration `envconfig:"VELVETSOUK_CART_TTL" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VELVETSOUK_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"VELVETSOUK_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VELVETSOUK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	if db.Host == "" {
		missing = append(missing, "VELVETSOUK_DB_HOST")
	}
	if db.User == "" {
		missing = append(missing, "VELVETSOUK_DB_USER")
	}
	if db.Name == "" {
		missing = append(missing, "VELVETSOUK_DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("either VELVETSOUK_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
