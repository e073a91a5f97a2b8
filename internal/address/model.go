package address

import (
	"barbershop_backend/internal/common"
	"barbershop_backend/internal/shared"

	"github.com/google/uuid"
)

// Address is the single postal address a user may register.
type Address struct {
	common.BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_addresses_user_id"`
	CEP         string    `gorm:"column:cep;type:varchar(9);not null"`
	UF          string    `gorm:"column:uf;type:char(2);not null"`
	Cidade      string    `gorm:"type:varchar(100);not null"`
	Bairro      string    `gorm:"type:varchar(100);not null"`
	Rua         string    `gorm:"type:varchar(150);not null"`
	Numero      int       `gorm:"not null"`
	Complemento *string   `gorm:"type:varchar(100)"`
}

// TableName specifies the table name for the Address model.
func (Address) TableName() string {
	return "addresses"
}

// CreateAddressRequest is the intake payload. Numero arrives as a string and
// is converted to an integer by the service.
type CreateAddressRequest struct {
	CEP         string `json:"cep" binding:"required,cep"`
	UF          string `json:"uf" binding:"required,uf"`
	Cidade      string `json:"cidade" binding:"required,max=100"`
	Bairro      string `json:"bairro" binding:"required,max=100"`
	Rua         string `json:"rua" binding:"required,max=150"`
	Numero      string `json:"numero" binding:"required,numeric,max=6"`
	Complemento string `json:"complemento" binding:"omitempty,max=100"`
}

// ToShared converts the model into its API form.
func ToShared(a *Address) *shared.Address {
	if a == nil {
		return nil
	}
	return &shared.Address{
		ID:          a.ID,
		UserID:      a.UserID,
		CEP:         a.CEP,
		UF:          a.UF,
		Cidade:      a.Cidade,
		Bairro:      a.Bairro,
		Rua:         a.Rua,
		Numero:      a.Numero,
		Complemento: a.Complemento,
		CreatedAt:   a.CreatedAt,
	}
}
