package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"github.com/tech-arch1tect/paygate/services/jwt"
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/refreshtoken"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/zap"
)

var ErrRelogin = errors.New("RELOGIN")

const IdentityKey = "_auth_identity"

type identityContextKey struct{}

type TokenVerifier interface {
	VerifyAccess(token string) (*jwt.AccessClaims, error)
	VerifyRefresh(token string) (*jwt.RefreshClaims, error)
}

type UserFinder interface {
	FindByRefreshID(ctx context.Context, refreshID string) (*user.User, error)
}

type TokenRotator interface {
	Rotate(ctx context.Context, userID uint, presentedRefreshID string) (*refreshtoken.TokenPair, *user.User, error)
}

type Config struct {
	Verifier        TokenVerifier
	Users           UserFinder
	Rotator         TokenRotator
	AccessHeader    string
	RefreshHeader   string
	AllowAccessOnly bool
	OnRelogin       func(c echo.Context) error
	Logger          *logging.Service
}

// Middleware resolves the caller's identity from the access/refresh header
// pair. It only ever short-circuits the request when both tokens fail to
// verify; every other failure degrades to an anonymous request.
func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.AccessHeader == "" {
		cfg.AccessHeader = "X-Access-Token"
	}

	if cfg.RefreshHeader == "" {
		cfg.RefreshHeader = "X-Refresh-Token"
	}

	if cfg.OnRelogin == nil {
		cfg.OnRelogin = DefaultOnRelogin
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			accessToken := strings.TrimSpace(c.Request().Header.Get(cfg.AccessHeader))
			refreshToken := strings.TrimSpace(c.Request().Header.Get(cfg.RefreshHeader))

			if accessToken == "" || refreshToken == "" {
				if cfg.AllowAccessOnly && accessToken != "" {
					if claims, err := cfg.Verifier.VerifyAccess(accessToken); err == nil {
						setIdentity(c, &claims.User)
					}
				}
				return next(c)
			}

			if claims, err := cfg.Verifier.VerifyAccess(accessToken); err == nil {
				setIdentity(c, &claims.User)
				return next(c)
			}

			refreshClaims, err := cfg.Verifier.VerifyRefresh(refreshToken)
			if err != nil || refreshClaims.RefreshID == "" {
				if cfg.Logger != nil {
					cfg.Logger.Info("both tokens rejected, relogin required", zap.String("remote_ip", c.RealIP()))
				}
				return cfg.OnRelogin(c)
			}

			if identity := rotate(c, cfg, refreshClaims); identity != nil {
				setIdentity(c, identity)
			}

			return next(c)
		}
	}
}

func rotate(c echo.Context, cfg *Config, claims *jwt.RefreshClaims) *jwt.Identity {
	ctx := c.Request().Context()

	owner, err := cfg.Users.FindByRefreshID(ctx, claims.RefreshID)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) && cfg.Logger != nil {
			cfg.Logger.Error("refresh lookup failed", zap.Uint("user_id", claims.UserID), zap.Error(err))
		}
		return nil
	}

	if owner.ID != claims.UserID {
		if cfg.Logger != nil {
			cfg.Logger.Warn("refresh identifier owner mismatch",
				zap.Uint("claimed_user_id", claims.UserID),
				zap.Uint("owner_id", owner.ID),
				zap.Error(refreshtoken.ErrStaleRefresh))
		}
		return nil
	}

	pair, rotated, err := cfg.Rotator.Rotate(ctx, owner.ID, claims.RefreshID)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("token rotation failed", zap.Uint("user_id", owner.ID), zap.Error(err))
		}
		return nil
	}

	header := c.Response().Header()
	header.Set(cfg.AccessHeader, pair.AccessToken)
	header.Set(cfg.RefreshHeader, pair.RefreshToken)
	header.Set(echo.HeaderAccessControlExposeHeaders, cfg.AccessHeader+", "+cfg.RefreshHeader)

	if cfg.Logger != nil {
		ua := useragent.Parse(c.Request().UserAgent())
		cfg.Logger.Info("token pair rotated",
			zap.Uint("user_id", rotated.ID),
			zap.String("remote_ip", c.RealIP()),
			zap.String("browser", ua.Name),
			zap.String("os", ua.OS),
			zap.Bool("mobile", ua.Mobile))
	}

	identity := rotated.Identity()
	return &identity
}

func setIdentity(c echo.Context, identity *jwt.Identity) {
	c.Set(IdentityKey, identity)
	c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), identity)))
}

func WithIdentity(ctx context.Context, identity *jwt.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) *jwt.Identity {
	if identity, ok := ctx.Value(identityContextKey{}).(*jwt.Identity); ok {
		return identity
	}
	return nil
}

func GetIdentity(c echo.Context) *jwt.Identity {
	if identity, ok := c.Get(IdentityKey).(*jwt.Identity); ok {
		return identity
	}
	return nil
}

func DefaultOnRelogin(c echo.Context) error {
	return echo.NewHTTPError(http.StatusUnauthorized, ErrRelogin.Error())
}
