package config

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/sethvargo/go-envconfig"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type Config struct {
	Host       string `env:"HOST, default=127.0.0.1"`   // bind host
	Port       int    `env:"PORT, default=3050"`        // bind port
	TLS        bool   `env:"TLS, default=false"`        // "true" or "1" enables TLS
	TLSDir     string `env:"TLS_DIR, default=ssl"`      // holds cert.pem and key.pem
	ConfigFile string `env:"CONFIG_FILE, default=config.yml"`
	LogDir     string `env:"LOG_DIR, default=logs"`
	LogLevel   string `env:"LOG_LEVEL, default=info"`

	PollInterval        time.Duration `env:"POLL_INTERVAL, default=10s"`
	ProbeTimeout        time.Duration `env:"PROBE_TIMEOUT, default=10s"`
	MaxConcurrentProbes int           `env:"MAX_CONCURRENT_PROBES, default=0"` // 0 = unbounded

	PublicRPM      int      `env:"PUBLIC_RPM, default=0"`      // 0 disables rate limiting
	PublicBurst    int      `env:"PUBLIC_BURST, default=0"`
	TrustProxy     bool     `env:"TRUST_PROXY, default=false"` // key rate limits by X-Forwarded-For
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`            // empty allows all
}

// FromEnv reads the process environment and validates the result.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.TLSDir, validation.When(c.TLS, validation.Required)),
		validation.Field(&c.ConfigFile, validation.Required),
		validation.Field(&c.LogDir, validation.Required),
		validation.Field(&c.LogLevel,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.ProbeTimeout, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.MaxConcurrentProbes, validation.Min(0)),
		validation.Field(&c.PublicRPM, validation.Min(0)),
		validation.Field(&c.PublicBurst, validation.Min(0)),
	)
}

// Addr is the listen address for the HTTP layer.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) CertFile() string { return filepath.Join(c.TLSDir, "cert.pem") }
func (c Config) KeyFile() string  { return filepath.Join(c.TLSDir, "key.pem") }
