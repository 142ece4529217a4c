package graph

import (
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/refreshtoken"
	"github.com/tech-arch1tect/paygate/services/safehaven"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/fx"
)

func ProvideResolver(users *user.Service, tokens *refreshtoken.Service, client *safehaven.Client, logger *logging.Service) *Resolver {
	return NewResolver(users, tokens, client, logger)
}

var Options = fx.Options(
	fx.Provide(
		ProvideResolver,
		NewSchema,
		NewHandler,
	),
)
