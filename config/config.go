package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
)

var (
	ErrMissingAccessSecret  = errors.New("JWT_ACCESS_SECRET is required")
	ErrMissingRefreshSecret = errors.New("JWT_REFRESH_SECRET is required")
	ErrSharedTokenSecret    = errors.New("access and refresh token secrets must differ")
)

const minSecretLength = 32

type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	SafeHaven SafeHavenConfig `envPrefix:"SAFEHAVEN_"`
	GraphQL   GraphQLConfig   `envPrefix:"GRAPHQL_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"paygate"`
	Env  string `env:"ENV" envDefault:"development"`
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"4000"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	AllowOrigins    []string      `env:"ALLOW_ORIGINS" envDefault:"*" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type LogConfig struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	Format     string `env:"FORMAT" envDefault:"json"`
	Output     string `env:"OUTPUT" envDefault:"stdout"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"30"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"30"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DRIVER" envDefault:"sqlite"`
	DSN             string        `env:"DSN" envDefault:"app.db"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"120"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"50"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
}

type JWTConfig struct {
	AccessSecret    string        `env:"ACCESS_SECRET"`
	RefreshSecret   string        `env:"REFRESH_SECRET"`
	AccessExpiry    time.Duration `env:"ACCESS_EXPIRY" envDefault:"168h"`
	RefreshExpiry   time.Duration `env:"REFRESH_EXPIRY" envDefault:"720h"`
	Issuer          string        `env:"ISSUER" envDefault:"paygate"`
	RefreshIDLength int           `env:"REFRESH_ID_LENGTH" envDefault:"32"`
}

type AuthConfig struct {
	AccessHeader    string `env:"ACCESS_HEADER" envDefault:"X-Access-Token"`
	RefreshHeader   string `env:"REFRESH_HEADER" envDefault:"X-Refresh-Token"`
	AllowAccessOnly bool   `env:"ALLOW_ACCESS_ONLY" envDefault:"false"`
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"10"`
	MinPassword     int    `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Rate    int           `env:"RATE" envDefault:"120"`
	Period  time.Duration `env:"PERIOD" envDefault:"1m"`
}

type SafeHavenConfig struct {
	BaseURL            string        `env:"BASE_URL" envDefault:"https://api.safehavenmfb.com"`
	ClientID           string        `env:"CLIENT_ID"`
	ClientAssertion    string        `env:"CLIENT_ASSERTION"`
	DebitAccountNumber string        `env:"DEBIT_ACCOUNT_NUMBER" envDefault:"0000000000"`
	Timeout            time.Duration `env:"TIMEOUT" envDefault:"15s"`
	TokenCache         bool          `env:"TOKEN_CACHE" envDefault:"true"`
}

type GraphQLConfig struct {
	Path          string `env:"PATH" envDefault:"/graphql"`
	MaxDepth      int    `env:"MAX_DEPTH" envDefault:"12"`
	Introspection bool   `env:"INTROSPECTION" envDefault:"true"`
	BodyLimit     string `env:"BODY_LIMIT" envDefault:"1M"`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg.Validate()
}

func (c *Config) Validate() error {
	if err := validateJWTConfig(&c.JWT); err != nil {
		return err
	}
	if c.GraphQL.BodyLimit != "" {
		if _, err := bytes.Parse(c.GraphQL.BodyLimit); err != nil {
			return fmt.Errorf("invalid GRAPHQL_BODY_LIMIT %q: %w", c.GraphQL.BodyLimit, err)
		}
	}
	return nil
}

func validateJWTConfig(cfg *JWTConfig) error {
	if cfg.AccessSecret == "" {
		return ErrMissingAccessSecret
	}
	if cfg.RefreshSecret == "" {
		return ErrMissingRefreshSecret
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return ErrSharedTokenSecret
	}
	if len(cfg.AccessSecret) < minSecretLength || len(cfg.RefreshSecret) < minSecretLength {
		return fmt.Errorf("JWT secrets must be at least %d characters long", minSecretLength)
	}
	if cfg.RefreshIDLength < 16 {
		return errors.New("refresh identifier length must be at least 16 bytes")
	}
	if cfg.RefreshIDLength > 128 {
		return errors.New("refresh identifier length cannot exceed 128 bytes")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
