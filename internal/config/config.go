package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	FXProviderURL string        `env:"FX_PROVIDER_URL" envDefault:"http://api.fixer.io"`
	FXAccessKey   string        `env:"FX_ACCESS_KEY"`
	FXTimeout     time.Duration `env:"FX_TIMEOUT" envDefault:"5s"`

	PlatformFeePct      float64  `env:"PLATFORM_FEE_PCT" envDefault:"0"`
	SupportedCurrencies []string `env:"SUPPORTED_CURRENCIES" envSeparator:"," envDefault:"USD,EUR,GBP,CAD,MXN,AUD"`
	OrderRateRetries    uint64   `env:"ORDER_RATE_RETRIES" envDefault:"3"`

	ConnectedAccountTokenTTL time.Duration `env:"CONNECTED_ACCOUNT_TOKEN_TTL" envDefault:"1h"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	DBConnectWait time.Duration `env:"DB_CONNECT_WAIT" envDefault:"30s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.PlatformFeePct < 0 || cfg.PlatformFeePct > 100 {
		return nil, fmt.Errorf("config.Load: PLATFORM_FEE_PCT must be within [0, 100], got %v", cfg.PlatformFeePct)
	}
	return &cfg, nil
}
