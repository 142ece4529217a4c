package graph

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/graph-gophers/graphql-go"
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/logging"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var Schema string

func NewSchema(resolver *Resolver, cfg *config.Config, logger *logging.Service) (*graphql.Schema, error) {
	opts := []graphql.SchemaOpt{
		graphql.Logger(&panicLogger{logger: logger}),
	}
	if cfg.GraphQL.MaxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(cfg.GraphQL.MaxDepth))
	}
	if !cfg.GraphQL.Introspection {
		opts = append(opts, graphql.DisableIntrospection())
	}

	schema, err := graphql.ParseSchema(Schema, resolver, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graphql schema: %w", err)
	}
	return schema, nil
}

type panicLogger struct {
	logger *logging.Service
}

func (l *panicLogger) LogPanic(ctx context.Context, value interface{}) {
	if l.logger != nil {
		l.logger.Errorw("resolver panic", "panic", value, zap.Stack("stack"))
	}
}
