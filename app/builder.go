package app

import (
	"errors"
	"fmt"

	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/database"
	"github.com/tech-arch1tect/paygate/graph"
	"github.com/tech-arch1tect/paygate/middleware/auth"
	"github.com/tech-arch1tect/paygate/middleware/ratelimit"
	"github.com/tech-arch1tect/paygate/server"
	"github.com/tech-arch1tect/paygate/services/jwt"
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/refreshtoken"
	"github.com/tech-arch1tect/paygate/services/safehaven"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type AppBuilder struct {
	config    *config.Config
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.errors = append(b.errors, errors.New("config cannot be nil"))
		return b
	}
	b.config = cfg
	return b
}

// WithAutoConfig reads the configuration from the environment and an
// optional .env file.
func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.errors = append(b.errors, fmt.Errorf("failed to load config: %w", err))
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %w", errors.Join(b.errors...))
	}

	if b.config == nil {
		b.WithAutoConfig()
		if len(b.errors) > 0 {
			return nil, b.errors[0]
		}
	}

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{config: b.config}

	opts := append(b.Options(), fx.Invoke(func(logger *logging.Service, db *gorm.DB, srv *server.Server) {
		app.logger = logger
		app.db = db
		app.server = srv
	}))

	app.fx = fx.New(opts...)
	if err := app.fx.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application graph: %w", err)
	}

	return app, nil
}

// Options is the full dependency graph of the service.
func (b *AppBuilder) Options() []fx.Option {
	options := []fx.Option{
		fx.NopLogger,
		fx.Supply(b.config),
		fx.Supply(database.WithModels(&user.User{})),
		logging.Module,
		database.Module,
		jwt.Options,
		user.Options,
		refreshtoken.Options,
		safehaven.Options,
		ratelimit.Options,
		auth.Options,
		graph.Options,
		server.NewProvider(),
	}

	return append(options, b.fxOptions...)
}
