package auth

import (
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/jwt"
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/refreshtoken"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/fx"
)

func NewConfig(cfg *config.Config, codec *jwt.Service, repo *user.Repository, issuer *refreshtoken.Service, logger *logging.Service) *Config {
	return &Config{
		Verifier:        codec,
		Users:           repo,
		Rotator:         issuer,
		AccessHeader:    cfg.Auth.AccessHeader,
		RefreshHeader:   cfg.Auth.RefreshHeader,
		AllowAccessOnly: cfg.Auth.AllowAccessOnly,
		Logger:          logger,
	}
}

var Options = fx.Options(
	fx.Provide(NewConfig),
)
