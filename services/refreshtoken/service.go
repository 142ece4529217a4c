package refreshtoken

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/jwt"
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/zap"
)

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrUserNotFound          = errors.New("user not found")
	ErrPersistence           = errors.New("failed to persist refresh identifier")
	ErrStaleRefresh          = errors.New("refresh identifier is no longer current")
	ErrIssuanceFailed        = errors.New("token issuance failed")
	ErrTokenGenerationFailed = errors.New("failed to generate refresh identifier")
)

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*user.User, error)
	SetRefreshID(ctx context.Context, id uint, refreshID *string) (int64, error)
	SwapRefreshID(ctx context.Context, id uint, current, next string) (int64, error)
}

type TokenSigner interface {
	SignAccess(identity jwt.Identity) (string, error)
	SignRefresh(userID uint, refreshID string) (string, error)
	AccessExpiry() time.Duration
	RefreshExpiry() time.Duration
}

type Service struct {
	store  UserStore
	signer TokenSigner
	config *config.Config
	logger *logging.Service
}

func NewService(store UserStore, signer TokenSigner, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		store:  store,
		signer: signer,
		config: cfg,
		logger: logger,
	}
}

// Issue mints a fresh pair for the user and overwrites any refresh
// identifier stored before, invalidating earlier refresh tokens.
func (s *Service) Issue(ctx context.Context, userID uint) (*TokenPair, error) {
	pair, _, err := s.issue(ctx, userID, "")
	return pair, err
}

// Rotate is Issue guarded by a compare-and-swap on the presented refresh
// identifier. Of two concurrent rotations only one persists.
func (s *Service) Rotate(ctx context.Context, userID uint, presentedRefreshID string) (*TokenPair, *user.User, error) {
	if presentedRefreshID == "" {
		return nil, nil, s.fail(userID, ErrInvalidArgument)
	}
	return s.issue(ctx, userID, presentedRefreshID)
}

func (s *Service) Revoke(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrInvalidArgument
	}

	rows, err := s.store.SetRefreshID(ctx, userID, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke refresh identifier", zap.Uint("user_id", userID), zap.Error(err))
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	if s.logger != nil {
		s.logger.Info("refresh identifier revoked", zap.Uint("user_id", userID))
	}
	return nil
}

func (s *Service) issue(ctx context.Context, userID uint, presentedRefreshID string) (*TokenPair, *user.User, error) {
	if userID == 0 {
		return nil, nil, s.fail(userID, ErrInvalidArgument)
	}

	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil, s.fail(userID, ErrUserNotFound)
		}
		return nil, nil, s.fail(userID, fmt.Errorf("%w: %v", ErrPersistence, err))
	}

	refreshID, err := s.newRefreshID()
	if err != nil {
		return nil, nil, s.fail(userID, err)
	}

	now := time.Now()
	accessToken, err := s.signer.SignAccess(u.Identity())
	if err != nil {
		return nil, nil, s.fail(userID, err)
	}

	refreshToken, err := s.signer.SignRefresh(u.ID, refreshID)
	if err != nil {
		return nil, nil, s.fail(userID, err)
	}

	var rows int64
	if presentedRefreshID == "" {
		rows, err = s.store.SetRefreshID(ctx, u.ID, &refreshID)
	} else {
		rows, err = s.store.SwapRefreshID(ctx, u.ID, presentedRefreshID, refreshID)
	}
	if err != nil {
		return nil, nil, s.fail(userID, fmt.Errorf("%w: %v", ErrPersistence, err))
	}
	if rows == 0 {
		return nil, nil, s.fail(userID, ErrPersistence)
	}

	u.RefreshID = &refreshID

	if s.logger != nil {
		s.logger.Debug("token pair issued", zap.Uint("user_id", u.ID), zap.Bool("rotation", presentedRefreshID != ""))
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshID:        refreshID,
		AccessExpiresAt:  now.Add(s.signer.AccessExpiry()),
		RefreshExpiresAt: now.Add(s.signer.RefreshExpiry()),
	}, u, nil
}

func (s *Service) fail(userID uint, cause error) error {
	if s.logger != nil {
		s.logger.Error("token issuance failed", zap.Uint("user_id", userID), zap.Error(cause))
	}
	return fmt.Errorf("%w: %w", ErrIssuanceFailed, cause)
}

func (s *Service) newRefreshID() (string, error) {
	length := s.config.JWT.RefreshIDLength
	if length <= 0 {
		length = 32
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGenerationFailed, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
