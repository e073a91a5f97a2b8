package shared

import (
	"time"

	"github.com/google/uuid"
)

// Address is the API view of a user's postal address.
type Address struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	CEP         string    `json:"cep"`
	UF          string    `json:"uf"`
	Cidade      string    `json:"cidade"`
	Bairro      string    `json:"bairro"`
	Rua         string    `json:"rua"`
	Numero      int       `json:"numero"`
	Complemento *string   `json:"complemento,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
