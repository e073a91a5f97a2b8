// Package lookup resolves Brazilian postal codes through ViaCEP and states
// and municipalities through the IBGE localities API.
package lookup

import (
	"net/http"

	"barbershop_backend/internal/common"
)

var (
	ErrInvalidCEP    = common.NewAPIError(http.StatusBadRequest, "INVALID_CEP", "The CEP must have eight digits.")
	ErrCEPNotFound   = common.NewAPIError(http.StatusNotFound, "CEP_NOT_FOUND", "No address was found for this CEP.")
	ErrStateNotFound = common.NewAPIError(http.StatusNotFound, "STATE_NOT_FOUND", "Unknown state.")
)

// PostalAddress is what a CEP resolves to.
type PostalAddress struct {
	CEP         string `json:"cep"`
	UF          string `json:"uf"`
	Cidade      string `json:"cidade"`
	Bairro      string `json:"bairro"`
	Rua         string `json:"rua"`
	Complemento string `json:"complemento,omitempty"`
	IBGECode    string `json:"ibge,omitempty"`
}

// State is a Brazilian federative unit.
type State struct {
	ID    int    `json:"id"`
	Sigla string `json:"sigla"`
	Nome  string `json:"nome"`
}

// Municipality belongs to a State.
type Municipality struct {
	ID   int    `json:"id"`
	Nome string `json:"nome"`
}
