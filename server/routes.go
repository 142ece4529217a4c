package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/graph"
	"github.com/tech-arch1tect/paygate/middleware/auth"
	"github.com/tech-arch1tect/paygate/middleware/ratelimit"
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/zap"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

func RegisterRoutes(srv *Server, cfg *config.Config, handler *graph.Handler, authCfg *auth.Config, store ratelimit.Store, repo *user.Repository, logger *logging.Service) {
	srv.Get(healthPath, HealthHandler(repo, logger))

	if authCfg.OnRelogin == nil {
		authCfg.OnRelogin = graph.ReloginResponse
	}

	var chain []echo.MiddlewareFunc
	if cfg.GraphQL.BodyLimit != "" {
		chain = append(chain, middleware.BodyLimit(cfg.GraphQL.BodyLimit))
	}
	if limiter := ratelimit.FromConfig(cfg, store, logger); limiter != nil {
		chain = append(chain, limiter)
	}
	chain = append(chain, auth.Middleware(authCfg))

	path := cfg.GraphQL.Path
	if path == "" {
		path = "/graphql"
	}
	srv.Post(path, handler.Serve, chain...)
	srv.Get(path, handler.Serve, chain...)
}

func HealthHandler(checker HealthChecker, logger *logging.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := checker.Ping(ctx); err != nil {
			logger.Error("health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
