package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration, read once at start-up.
type Config struct {
	AppPort         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	GatewayBaseURL   string
	GatewaySecretKey string
	GatewayTimeout   time.Duration

	PublicBaseURL string
	FrontendURL   string

	RabbitMQURL string

	ShippingFee int64
	TaxPercent  int64

	LogLevel    string
	SeedCatalog bool

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

var required = []string{"JWT_SECRET", "GATEWAY_BASE_URL", "GATEWAY_SECRET_KEY"}

// Load reads the configuration from the environment and, when CONFIG_FILE is
// set, from that file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return FromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("READ_TIMEOUT", "15s")
	v.SetDefault("WRITE_TIMEOUT", "15s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:grocery.db?_busy_timeout=5000")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("GATEWAY_TIMEOUT", "10s")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("SHIPPING_FEE", 50)
	v.SetDefault("TAX_PERCENT", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_CATALOG", false)
}

// FromViper builds a Config from v, applying defaults and validating the
// required keys. All missing keys are reported together.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		ReadTimeout:      v.GetDuration("READ_TIMEOUT"),
		WriteTimeout:     v.GetDuration("WRITE_TIMEOUT"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		DatabaseDriver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		GatewayBaseURL:   v.GetString("GATEWAY_BASE_URL"),
		GatewaySecretKey: v.GetString("GATEWAY_SECRET_KEY"),
		GatewayTimeout:   v.GetDuration("GATEWAY_TIMEOUT"),
		PublicBaseURL:    strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		FrontendURL:      strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		ShippingFee:      v.GetInt64("SHIPPING_FEE"),
		TaxPercent:       v.GetInt64("TAX_PERCENT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		SeedCatalog:      v.GetBool("SEED_CATALOG"),
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminEmail:       v.GetString("ADMIN_EMAIL"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if u, err := url.Parse(c.GatewayBaseURL); err != nil || !u.IsAbs() {
		return fmt.Errorf("GATEWAY_BASE_URL must be an absolute URL")
	}
	if c.ShippingFee < 0 {
		return fmt.Errorf("SHIPPING_FEE must not be negative")
	}
	if c.TaxPercent < 0 || c.TaxPercent > 100 {
		return fmt.Errorf("TAX_PERCENT must be between 0 and 100")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	return nil
}

// GatewayReturnURL is where the gateway sends the browser after payment.
func (c *Config) GatewayReturnURL() string {
	return c.PublicBaseURL + "/api/payments/gateway/callback"
}

// AdminConfigured reports whether a bootstrap administrator was requested.
func (c *Config) AdminConfigured() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}
