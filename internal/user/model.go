// File: internal/user/model.go
package user

import (
	"time"

	"barbershop_backend/internal/common"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel
	Name            string  `gorm:"type:varchar(100);not null"`
	Email           string  `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null"`
	Phone           *string `gorm:"type:varchar(20)"`  // OAuth sign-ups have no phone
	PasswordHash    *string `gorm:"type:varchar(255)"` // nil for OAuth-only users
	AvatarURL       *string `gorm:"type:text"`
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// --- DTOs (Data Transfer Objects) for API requests ---

// CreateUserRequest is the registration payload.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=4,max=20"`
	Phone    string `json:"phone" binding:"required,phone_br"`
}
