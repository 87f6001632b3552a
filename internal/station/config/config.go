package config

import (
	"errors"
	"strings"
	"time"

	"evconnect/internal/shared/eventbus"

	"github.com/caarlos0/env/v6"
)

// DefaultAccessRule grants access to the station owner only
const DefaultAccessRule = "resource.userId == auth.uid"

// Config holds the station module settings
type Config struct {
	// AccessRule is a CEL expression over auth, resource and operation that must
	// evaluate to a bool. It can only narrow access: the owner check always runs first.
	AccessRule     string `env:"STATION_ACCESS_RULE" envDefault:"resource.userId == auth.uid"`
	FeedBufferSize int    `env:"FEED_BUFFER_SIZE" envDefault:"16"`
	CollectionName string `env:"STATION_COLLECTION" envDefault:"chargingstations"`

	// Event delivery to feed subscribers. Handlers run off the request path.
	EventAsync      bool          `env:"STATION_EVENT_ASYNC" envDefault:"true"`
	EventMaxRetries int           `env:"STATION_EVENT_MAX_RETRIES" envDefault:"2"`
	EventRetryDelay time.Duration `env:"STATION_EVENT_RETRY_DELAY" envDefault:"100ms"`
}

// BusConfig returns the event bus settings
func (cfg *Config) BusConfig() eventbus.BusConfig {
	return eventbus.BusConfig{
		AsyncProcessing: cfg.EventAsync,
		MaxRetries:      cfg.EventMaxRetries,
		RetryDelay:      cfg.EventRetryDelay,
	}
}

// LoadConfig reads the station settings from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load station configuration: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values and fills blanks with defaults
func (cfg *Config) Validate() error {
	cfg.AccessRule = strings.TrimSpace(cfg.AccessRule)
	if cfg.AccessRule == "" {
		cfg.AccessRule = DefaultAccessRule
	}
	if cfg.FeedBufferSize <= 0 {
		return errors.New("feed_buffer_size must be positive")
	}
	if cfg.EventMaxRetries < 0 {
		return errors.New("station_event_max_retries cannot be negative")
	}
	if cfg.EventMaxRetries > 0 && cfg.EventRetryDelay <= 0 {
		return errors.New("station_event_retry_delay must be positive")
	}
	if cfg.CollectionName == "" {
		return errors.New("station_collection cannot be empty")
	}
	return nil
}
