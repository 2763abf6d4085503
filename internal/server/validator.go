package server

import "github.com/go-playground/validator/v10"

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator создает валидатор запросов на базе go-playground/validator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate проверяет DTO запроса по тегам validate.
func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}
