package dto

import (
	"github.com/go-playground/validator/v10"
)

// RegisterValidations adds the Brazilian document tags used by the billing DTOs.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("br_phone", func(fl validator.FieldLevel) bool {
		return len(Digits(fl.Field().String())) >= 10
	}); err != nil {
		return err
	}
	return v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return len(Digits(fl.Field().String())) == 11
	})
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
