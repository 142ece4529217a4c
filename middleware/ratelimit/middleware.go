package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/logging"
	"go.uber.org/zap"
)

type Config struct {
	Store          Store
	Rate           int
	Period         time.Duration
	KeyGenerator   func(c echo.Context) string
	OnLimitReached func(c echo.Context) error
	Logger         *logging.Service
}

func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}

	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = DefaultOnLimitReached
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyGenerator(c)
			resetTime := time.Now().Add(cfg.Period)

			count, existingResetTime, exists := cfg.Store.Get(key)
			if exists {
				resetTime = existingResetTime
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Rate))

			if count >= cfg.Rate {
				header.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
				header.Set("X-RateLimit-Remaining", "0")
				if cfg.Logger != nil {
					cfg.Logger.Warn("rate limit reached", zap.String("key", key), zap.Int("limit", cfg.Rate))
				}
				return cfg.OnLimitReached(c)
			}

			newCount, windowReset := cfg.Store.Increment(key, resetTime)
			header.Set("X-RateLimit-Reset", strconv.FormatInt(windowReset.Unix(), 10))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(max(cfg.Rate-newCount, 0)))

			return next(c)
		}
	}
}

func DefaultKeyGenerator(c echo.Context) string {
	realIP := c.RealIP()

	if realIP == "" || realIP == "unknown" {
		realIP = "fallback"
	}

	return "rate_limit:" + realIP
}

func DefaultOnLimitReached(c echo.Context) error {
	return echo.NewHTTPError(http.StatusTooManyRequests, "Too Many Requests")
}

// FromConfig returns nil when rate limiting is disabled.
func FromConfig(cfg *config.Config, store Store, logger *logging.Service) echo.MiddlewareFunc {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	return Middleware(&Config{
		Store:  store,
		Rate:   cfg.RateLimit.Rate,
		Period: cfg.RateLimit.Period,
		Logger: logger,
	})
}
