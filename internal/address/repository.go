package address

import (
	"context"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for address data operations.
type Repository interface {
	Create(ctx context.Context, a *Address) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Address, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM address repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts the address. The unique index on user_id turns a second
// address for the same user into ErrAddressAlreadyExists.
func (r *gormRepository) Create(ctx context.Context, a *Address) error {
	if err := database.Conn(ctx, r.db).Create(a).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return common.ErrAddressAlreadyExists
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*Address, error) {
	var a Address
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).First(&a).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("No address registered for this user.")
		}
		return nil, err
	}
	return &a, nil
}

func (r *gormRepository) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&Address{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
