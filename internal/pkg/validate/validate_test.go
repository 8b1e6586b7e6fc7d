package validate

import (
	"testing"

	"github.com/marque-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeInput struct {
	Phone string `json:"phone_number" validate:"required,e164"`
	Code  string `json:"verification_code,omitempty" validate:"required,len=6,numeric"`
	Note  string `validate:"omitempty,max=3"`
}

func TestStruct_Valid(t *testing.T) {
	require.NoError(t, Struct(codeInput{Phone: "+996700123456", Code: "123456"}))
}

func TestStruct_InvalidWrapsValidation(t *testing.T) {
	err := Struct(codeInput{Phone: "0700", Code: "12ab", Note: "toolong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "field 'phone_number' failed 'e164'")
	assert.Contains(t, err.Error(), "field 'verification_code' failed 'len'")
	assert.Contains(t, err.Error(), "field 'Note' failed 'max'")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("phone_number", "+12125551234", "e164"))
	assert.ErrorIs(t, Var("phone_number", "+1 212", "e164"), domain.ErrValidation)
}
