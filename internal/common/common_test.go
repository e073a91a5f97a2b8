package common

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	err := ErrNotFound.WithDetails("user 42")

	assert.Nil(t, ErrNotFound.Details)
	assert.Equal(t, "user 42", err.Details)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("abcd", 4)
	require.NoError(t, err)

	assert.NotEqual(t, "abcd", hash)
	assert.True(t, CheckPasswordHash("abcd", hash))
	assert.False(t, CheckPasswordHash("abce", hash))
	assert.False(t, CheckPasswordHash("abcd", "not-a-bcrypt-hash"))
}

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidators(v))

	type payload struct {
		Phone string `json:"phone" validate:"phone_br"`
		CEP   string `json:"cep" validate:"cep"`
		UF    string `json:"uf" validate:"uf"`
	}

	assert.NoError(t, v.Struct(payload{Phone: "(11)91234-5678", CEP: "01001-000", UF: "sp"}))

	err := v.Struct(payload{Phone: "11912345678", CEP: "0100-1000", UF: "XX"})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := FormatValidationErrors(verrs)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "cep")
	assert.Contains(t, fields, "uf")
}

func TestCEPHelpers(t *testing.T) {
	assert.Equal(t, "01001000", NormalizeCEP("01001-000"))
	assert.Equal(t, "01001-000", FormatCEP("01001000"))
	assert.Equal(t, "123", FormatCEP("123"))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Rua das Flores", SanitizeText("  <b>Rua das Flores</b> "))
	assert.Equal(t, "D'Avila & Filhos", SanitizeText("D'Avila & Filhos<script>alert(1)</script>"))
	assert.Equal(t, "a < b", SanitizeText("a < b"))

	encoded := []string{
		"Rua &lt;script&gt;alert(1)&lt;/script&gt;",
		"Rua &amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;",
		"Rua &#60;img src=x onerror=alert(1)&#62;",
	}
	for _, in := range encoded {
		out := SanitizeText(in)
		assert.NotContains(t, out, "<script", in)
		assert.NotContains(t, out, "<img", in)
		assert.True(t, strings.HasPrefix(out, "Rua"), in)
	}
}
