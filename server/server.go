package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/logging"
	"go.uber.org/zap"
)

const healthPath = "/healthz"

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger *logging.Service
}

func New(cfg *config.Config, logger *logging.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if zl := logger.Logger(); zl != nil {
		e.StdLogger = zap.NewStdLog(zl.With(zap.String("component", "http")))
	}

	tokenHeaders := []string{cfg.Auth.AccessHeader, cfg.Auth.RefreshHeader}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger, healthPath))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.Server.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  append([]string{echo.HeaderContentType, echo.HeaderAccept}, tokenHeaders...),
		ExposeHeaders: tokenHeaders,
	}))

	return &Server{
		echo:   e,
		cfg:    cfg,
		logger: logger,
	}
}

// Start blocks until the listener stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	addr := s.cfg.Addr()
	s.logger.Infof("starting %s server on %s", s.cfg.App.Name, addr)

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping paygate server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) Get(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.echo.GET(path, handler, m...)
}

func (s *Server) Post(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.echo.POST(path, handler, m...)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
