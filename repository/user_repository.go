package repository

import (
	"context"
	"errors"
	"fmt"

	"dzika/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for admin user data operations.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Upsert creates the user or replaces the password hash of an existing
	// one; used by the seed command.
	Upsert(ctx context.Context, user *model.User) error
}

// gormUserRepository implements UserRepository on GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new instance of gormUserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return &user, nil
}

func (r *gormUserRepository) Upsert(ctx context.Context, user *model.User) error {
	var existing model.User
	err := r.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		existing.Name = user.Name
		existing.PasswordHash = user.PasswordHash
		if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update user %s: %w", user.Email, err)
		}
		*user = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to query user %s: %w", user.Email, err)
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return nil
}
