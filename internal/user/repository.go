// File: internal/user/repository.go
package user

import (
	"context"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, user *User) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new user record into the database.
func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	err := database.Savepoint(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Create(user).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return common.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmail retrieves a user by their email address.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var userModel User
	err := database.Conn(ctx, r.db).Where("email = ?", NormalizeEmail(email)).First(&userModel).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("User not found with this email.")
		}
		return nil, err
	}
	return &userModel, nil
}

// FindByID retrieves a user by their ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var userModel User
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&userModel).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return nil, err
	}
	return &userModel, nil
}

// Update modifies an existing user record in the database.
func (r *gormRepository) Update(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	err := database.Conn(ctx, r.db).Save(user).Error
	if err != nil {
		if database.IsUniqueViolation(err) {
			return common.ErrEmailAlreadyExists.WithMessage("Update failed: email already taken.")
		}
		return err
	}
	return nil
}

// TouchLastLogin sets last_login_at without loading the row.
func (r *gormRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := database.Conn(ctx, r.db).Model(&User{}).Where("id = ?", id).Update("last_login_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("User not found with this ID.")
	}
	return nil
}
