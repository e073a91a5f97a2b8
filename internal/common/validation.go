// File: internal/common/validation.go
package common

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phoneBRPattern = regexp.MustCompile(`^\(\d{2}\)\d{4,5}-\d{4}$`)
	cepPattern     = regexp.MustCompile(`^\d{5}-?\d{3}$`)
)

// BrazilianStates lists the 27 federative unit abbreviations.
var BrazilianStates = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO",
	"MA", "MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI",
	"RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

// RegisterValidators installs the custom tags used by request DTOs and makes
// validation errors report JSON field names.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("phone_br", func(fl validator.FieldLevel) bool {
		return phoneBRPattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("cep", func(fl validator.FieldLevel) bool {
		return IsValidCEP(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("uf", func(fl validator.FieldLevel) bool {
		return IsValidUF(fl.Field().String())
	})
}

// RegisterGinValidators installs the custom tags on gin's binding validator.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return RegisterValidators(v)
}

// IsValidCEP accepts "00000-000" and "00000000".
func IsValidCEP(cep string) bool {
	return cepPattern.MatchString(strings.TrimSpace(cep))
}

// NormalizeCEP strips everything but digits. The result is only meaningful
// when it has exactly eight digits.
func NormalizeCEP(cep string) string {
	var b strings.Builder
	for _, r := range cep {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCEP renders an eight digit CEP as 00000-000.
func FormatCEP(digits string) string {
	if len(digits) != 8 {
		return digits
	}
	return digits[:5] + "-" + digits[5:]
}

// IsValidUF is case insensitive.
func IsValidUF(uf string) bool {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	for _, s := range BrazilianStates {
		if s == uf {
			return true
		}
	}
	return false
}
