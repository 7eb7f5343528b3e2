package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "bazario"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BAZARIO_DB_DSN"
	EnvDBHost = "BAZARIO_DB_HOST"
	EnvDBUser = "BAZARIO_DB_USER"
	EnvDBName = "BAZARIO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Platform      PlatformConfig
	Stripe        StripeConfig
	PayPal        PayPalConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Platform.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAZARIO_APP_ENV" required:"true"`
	Port         string `envconfig:"BAZARIO_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"BAZARIO_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"BAZARIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAZARIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BAZARIO_DB_DSN"`
	Driver string `envconfig:"BAZARIO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAZARIO_DB_HOST"`
	LegacyPort     int    `envconfig:"BAZARIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAZARIO_DB_USER"`
	LegacyPassword string `envconfig:"BAZARIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAZARIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAZARIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZARIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZARIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZARIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZARIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZARIO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAZARIO_REDIS_ADDR"`
	Password     string        `envconfig:"BAZARIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAZARIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAZARIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZARIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZARIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZARIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZARIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZARIO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZARIO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAZARIO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAZARIO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAZARIO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BAZARIO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BAZARIO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAZARIO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BAZARIO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BAZARIO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BAZARIO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BAZARIO_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BAZARIO_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BAZARIO_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAZARIO_AUTO_MIGRATE" default:"false"`
}

// PlatformConfig carries the marketplace economics knobs.
type PlatformConfig struct {
	FeeRate               string `envconfig:"BAZARIO_PLATFORM_FEE_RATE" default:"0.05"`
	DefaultCommissionRate string `envconfig:"BAZARIO_DEFAULT_COMMISSION_RATE" default:"0.1"`
	LowStockThreshold     int    `envconfig:"BAZARIO_LOW_STOCK_THRESHOLD" default:"5"`
	IdempotencyTTLHours   int    `envconfig:"BAZARIO_IDEMPOTENCY_TTL_HOURS" default:"168"`
}

func (p PlatformConfig) validate() error {
	if p.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold must be non-negative")
	}
	if p.IdempotencyTTLHours <= 0 {
		return fmt.Errorf("idempotency ttl must be positive")
	}
	return nil
}

// IdempotencyTTL returns the webhook idempotency window as a duration.
func (p PlatformConfig) IdempotencyTTL() time.Duration {
	return time.Duration(p.IdempotencyTTLHours) * time.Hour
}

type StripeConfig struct {
	APIKey string `envconfig:"BAZARIO_STRIPE_API_KEY"`
	Secret string `envconfig:"BAZARIO_STRIPE_SECRET"`
	Env    string `envconfig:"BAZARIO_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Configured reports whether Stripe credentials are present. When they are
// not, order creation degrades to a stub payment response.
func (s StripeConfig) Configured() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type PayPalConfig struct {
	ClientID     string `envconfig:"BAZARIO_PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"BAZARIO_PAYPAL_CLIENT_SECRET"`
	BaseURL      string `envconfig:"BAZARIO_PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
}

// Configured reports whether PayPal credentials are present.
func (p PayPalConfig) Configured() bool {
	return strings.TrimSpace(p.ClientID) != "" && strings.TrimSpace(p.ClientSecret) != ""
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
