package testutils

import (
	"time"

	"github.com/tech-arch1tect/paygate/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	TestAccessSecret  = "test-access-secret-key-32-chars-long!!"
	TestRefreshSecret = "test-refresh-secret-key-32-chars-long!"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "paygate-test",
			Env:  "test",
		},
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			AllowOrigins:    []string{"*"},
			ShutdownTimeout: 2 * time.Second,
		},
		Log: config.LogConfig{
			Level:  "debug",
			Format: "json",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		JWT: config.JWTConfig{
			AccessSecret:    TestAccessSecret,
			RefreshSecret:   TestRefreshSecret,
			AccessExpiry:    15 * time.Minute,
			RefreshExpiry:   24 * time.Hour,
			Issuer:          "paygate-test",
			RefreshIDLength: 32,
		},
		Auth: config.AuthConfig{
			AccessHeader:  "X-Access-Token",
			RefreshHeader: "X-Refresh-Token",
			BcryptCost:    bcrypt.MinCost,
			MinPassword:   8,
		},
		RateLimit: config.RateLimitConfig{
			Enabled: false,
			Rate:    100,
			Period:  time.Minute,
		},
		SafeHaven: config.SafeHavenConfig{
			BaseURL:            "http://127.0.0.1:0",
			ClientID:           "test-client",
			ClientAssertion:    "test-assertion",
			DebitAccountNumber: "0123456789",
			Timeout:            2 * time.Second,
			TokenCache:         true,
		},
		GraphQL: config.GraphQLConfig{
			Path:          "/graphql",
			MaxDepth:      12,
			Introspection: true,
			BodyLimit:     "1M",
		},
	}
}

var TestPasswords = struct {
	Valid    string
	Other    string
	TooShort string
}{
	Valid:    "Password123",
	Other:    "Different456",
	TooShort: "Pass1",
}
