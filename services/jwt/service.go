package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid JWT token")
	ErrExpiredToken     = errors.New("JWT token has expired")
	ErrMalformedToken   = errors.New("malformed JWT token")
	ErrInvalidSignature = errors.New("invalid JWT token signature")
	ErrWrongTokenType   = errors.New("JWT token has the wrong token type")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Identity is the user snapshot carried inside access tokens. It is trusted
// as-is until the token expires.
type Identity struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	State     string `json:"state"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Gender    string `json:"gender"`
}

type AccessClaims struct {
	User      Identity `json:"userObject"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID    uint   `json:"id"`
	RefreshID string `json:"refreshId"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.JWT.AccessExpiry
}

func (s *Service) RefreshExpiry() time.Duration {
	return s.config.JWT.RefreshExpiry
}

func (s *Service) SignAccess(identity Identity) (string, error) {
	claims := AccessClaims{
		User:             identity,
		TokenType:        TokenTypeAccess,
		RegisteredClaims: s.registeredClaims(identity.ID, s.config.JWT.AccessExpiry),
	}

	return s.sign(claims, s.config.JWT.AccessSecret, TokenTypeAccess)
}

func (s *Service) SignRefresh(userID uint, refreshID string) (string, error) {
	claims := RefreshClaims{
		UserID:           userID,
		RefreshID:        refreshID,
		TokenType:        TokenTypeRefresh,
		RegisteredClaims: s.registeredClaims(userID, s.config.JWT.RefreshExpiry),
	}

	return s.sign(claims, s.config.JWT.RefreshSecret, TokenTypeRefresh)
}

func (s *Service) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims, s.config.JWT.AccessSecret); err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeAccess {
		if s.logger != nil {
			s.logger.Warn("access token verification failed", zap.String("token_type", claims.TokenType))
		}
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

func (s *Service) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenString, claims, s.config.JWT.RefreshSecret); err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeRefresh {
		if s.logger != nil {
			s.logger.Warn("refresh token verification failed", zap.String("token_type", claims.TokenType))
		}
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

func (s *Service) registeredClaims(userID uint, expiry time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    s.config.JWT.Issuer,
		Subject:   fmt.Sprintf("%d", userID),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func (s *Service) sign(claims jwt.Claims, secret, tokenType string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign JWT token", zap.String("token_type", tokenType), zap.Error(err))
		}
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

func (s *Service) parse(tokenString string, claims jwt.Claims, secret string) error {
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}

		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}

		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Warn("JWT token verification failed", zap.Error(err))
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrInvalidSignature
	default:
		return ErrInvalidToken
	}
}

// IsInvalid collapses every verification failure into a single verdict for
// callers that only care about valid versus not.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrWrongTokenType)
}
