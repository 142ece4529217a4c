package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidEmail          = errors.New("your email is invalid")
	ErrInvalidPhone          = errors.New("your phone is invalid")
	ErrWeakPassword          = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrIncorrectPassword     = errors.New("old password is incorrect")
	ErrInactiveAccount       = errors.New("account is inactive")
	ErrPasswordHashingFailed = errors.New("failed to hash password")
)

type Service struct {
	repo     *Repository
	config   *config.Config
	validate *validator.Validate
	logger   *logging.Service
}

func NewService(cfg *config.Config, repo *Repository, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:     repo,
		config:   cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	if input.Phone == nil {
		return nil, ErrInvalidPhone
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, s.validationError(err)
	}

	phone, ok := JoinPhone(input.Phone)
	if !ok {
		return nil, ErrInvalidPhone
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}

	u := &User{
		Email:     email,
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
		Username:  input.Username,
		Password:  hash,
		Phone:     phone,
		Country:   input.Country,
		State:     input.State,
		Role:      role,
		Status:    StatusActive,
		Gender:    input.Gender,
		FcmToken:  input.FcmToken,
		Location:  input.Location,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("user created", zap.Uint("user_id", u.ID), zap.String("role", string(u.Role)))
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, id uint, input UpdateInput) (*User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, s.validationError(err)
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if existing, err := s.repo.FindByEmail(ctx, email); err == nil && existing.ID != id {
			return nil, ErrEmailTaken
		}
		updates["email"] = email
	}
	if input.Phone != nil {
		phone, ok := JoinPhone(input.Phone)
		if !ok {
			return nil, ErrInvalidPhone
		}
		updates["phone"] = phone
	}
	setString(updates, "firstname", input.Firstname)
	setString(updates, "lastname", input.Lastname)
	setString(updates, "username", input.Username)
	setString(updates, "country", input.Country)
	setString(updates, "state", input.State)
	setString(updates, "fcm_token", input.FcmToken)
	setString(updates, "location", input.Location)
	setString(updates, "star_rating", input.StarRating)
	if input.Role != nil {
		updates["role"] = *input.Role
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.Gender != nil {
		updates["gender"] = *input.Gender
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, id)
}

func setString(updates map[string]any, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("user deleted", zap.Uint("user_id", id))
	}
	return nil
}

func (s *Service) UpdatePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.VerifyPassword(u.Password, oldPassword); err != nil {
		return ErrIncorrectPassword
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.repo.Update(ctx, id, map[string]any{"password": hash})
}

func (s *Service) Get(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.FindAll(ctx)
}

// Authenticate checks login credentials. Unknown emails and wrong passwords
// produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.VerifyPassword(u.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if u.Status != StatusActive {
		if s.logger != nil {
			s.logger.Warn("login attempt on inactive account", zap.Uint("user_id", u.ID))
		}
		return nil, ErrInactiveAccount
	}

	return u, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < s.config.Auth.MinPassword {
		return "", fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, s.config.Auth.MinPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed", zap.Error(err))
		}
		return "", ErrPasswordHashingFailed
	}

	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		if s.logger != nil {
			s.logger.Debug("password verification failed", zap.Error(err))
		}
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fe := validationErrors[0]
	switch {
	case fe.Field() == "Email":
		return ErrInvalidEmail
	case fe.StructNamespace() != "" && strings.Contains(fe.StructNamespace(), ".Phone"):
		return ErrInvalidPhone
	}

	return fmt.Errorf("%w: %s failed on %s", ErrInvalidInput, strings.ToLower(fe.Field()), fe.Tag())
}
