package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the auth module.
type Config struct {
	// MongoDB Configuration
	MongoDBURI   string `env:"MONGODB_URI,required"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"evconnect"`

	// JWT Configuration
	JWTSecretKey   string        `env:"JWT_SECRET_KEY,required"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"evconnect-auth"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`

	// RevocationTTL is how long a logged-out token stays on the revocation list.
	RevocationTTL time.Duration `env:"REVOCATION_TTL" envDefault:"24h"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Cookie Configuration
	CookieName     string `env:"COOKIE_NAME" envDefault:"token"`
	CookiePath     string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"Lax"`

	// Login/register rate limit per client IP. A zero max disables it.
	RateLimitMax    int           `env:"AUTH_RATE_LIMIT_MAX" envDefault:"20"`
	RateLimitWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"1m"`

	Redis RedisConfig
}

// RedisConfig configures the optional revocation cache. An empty Addr disables it.
type RedisConfig struct {
	Addr            string        `env:"REDIS_ADDR" envDefault:""`
	Password        string        `env:"REDIS_PASSWORD" envDefault:""`
	Database        int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries      int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	EnableTLS       bool          `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	KeyPrefix       string        `env:"REDIS_KEY_PREFIX" envDefault:"evconnect:revoked:"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load configuration from environment: " + err.Error() +
			". Please ensure all required environment variables are set.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express and normalizes CookieSameSite.
func (cfg *Config) Validate() error {
	if cfg.JWTSecretKey == "" {
		return errors.New("jwt_secret_key is required")
	}
	if cfg.MongoDBURI == "" {
		return errors.New("mongodb_uri is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		return errors.New("access_token_ttl must be positive")
	}
	if cfg.RevocationTTL <= 0 {
		return errors.New("revocation_ttl must be positive")
	}
	if cfg.RateLimitMax < 0 {
		return errors.New("auth_rate_limit_max cannot be negative")
	}
	if cfg.RateLimitMax > 0 && cfg.RateLimitWindow <= 0 {
		return errors.New("auth_rate_limit_window must be positive")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return errors.New("bcrypt_cost is out of range")
	}

	sameSite := strings.ToLower(cfg.CookieSameSite)
	switch sameSite {
	case "lax", "strict", "none":
		cfg.CookieSameSite = strings.ToUpper(sameSite[:1]) + sameSite[1:]
	default:
		return errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	return nil
}
