package utils_test

import (
	"testing"

	"otp-verification/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", utils.NormalizeEmail("  Alice@Example.COM\t"))
	assert.Equal(t, "", utils.NormalizeEmail("   "))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, utils.ValidateEmail("a@x.com"))
	assert.Error(t, utils.ValidateEmail(""))
	assert.Error(t, utils.ValidateEmail("a@"))
	assert.Error(t, utils.ValidateEmail("plainaddress"))
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}

	assert.Nil(t, utils.ValidateStruct(payload{Email: "a@x.com"}))

	errs := utils.ValidateStruct(payload{})
	assert.Equal(t, "This field is required", errs["Email"])
	assert.Equal(t, "Email: This field is required", utils.FormatValidationErrors(errs))
}
