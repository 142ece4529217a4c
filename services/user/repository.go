package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/tech-arch1tect/paygate/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("user with this email already exists")
)

// Repository is the only path to the users table. Every lookup is an exact
// equality match.
type Repository struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewRepository(db *gorm.DB, logger *logging.Service) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		if r.logger != nil {
			r.logger.Error("failed to insert user", zap.String("email", u.Email), zap.Error(err))
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *Repository) FindByRefreshID(ctx context.Context, refreshID string) (*User, error) {
	if refreshID == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, "refresh_id = ?", refreshID)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		if r.logger != nil {
			r.logger.Error("user lookup failed", zap.String("condition", query), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		if r.logger != nil {
			r.logger.Error("failed to list users", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *Repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		if r.logger != nil {
			r.logger.Error("failed to update user", zap.Uint("user_id", id), zap.Error(result.Error))
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&User{})
	if result.Error != nil {
		if r.logger != nil {
			r.logger.Error("failed to delete user", zap.Uint("user_id", id), zap.Error(result.Error))
		}
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRefreshID overwrites the stored refresh identifier unconditionally. A nil
// value clears it. The returned count is the number of rows written.
func (r *Repository) SetRefreshID(ctx context.Context, id uint, refreshID *string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("refresh_id", refreshID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to store refresh identifier: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SwapRefreshID replaces the refresh identifier only while it still equals
// current. Zero rows means another request rotated first.
func (r *Repository) SwapRefreshID(ctx context.Context, id uint, current, next string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND refresh_id = ?", id, current).
		Update("refresh_id", next)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to rotate refresh identifier: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
