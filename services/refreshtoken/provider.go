package refreshtoken

import (
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/jwt"
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/fx"
)

func ProvideRefreshTokenService(repo *user.Repository, signer *jwt.Service, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(repo, signer, cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideRefreshTokenService),
)
