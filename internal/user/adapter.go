package user

import (
	"strings"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/shared"
)

// DBToShared converts a GORM user.User model to a shared.User DTO.
func DBToShared(dbUser *User) *shared.User {
	if dbUser == nil {
		return nil
	}
	return &shared.User{
		ID:            dbUser.ID,
		Name:          dbUser.Name,
		Email:         dbUser.Email,
		Phone:         dbUser.Phone,
		AvatarURL:     dbUser.AvatarURL,
		EmailVerified: dbUser.EmailVerifiedAt != nil,
		HasPassword:   dbUser.PasswordHash != nil && *dbUser.PasswordHash != "",
		CreatedAt:     dbUser.CreatedAt,
		UpdatedAt:     dbUser.UpdatedAt,
		LastLoginAt:   dbUser.LastLoginAt,
	}
}

// CreateRequestToDB builds the row for a registration. The password must
// already be hashed. Markup is stripped from the name.
func CreateRequestToDB(req *CreateUserRequest, passwordHash string) *User {
	phone := strings.TrimSpace(req.Phone)
	return &User{
		Name:         common.SanitizeText(req.Name),
		Email:        NormalizeEmail(req.Email),
		Phone:        &phone,
		PasswordHash: &passwordHash,
	}
}

// NormalizeEmail lowercases and trims an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
