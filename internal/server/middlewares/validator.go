package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type structValidator struct {
	validate *validator.Validate
}

// NewValidator returns an echo.Validator checking `validate` struct tags.
func NewValidator() echo.Validator {
	return &structValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate implements the echo.Validator interface.
func (v *structValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
