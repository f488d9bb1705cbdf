package auth

import (
	"chat-dm/errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type SignupRequest struct {
	FullName string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

func ValidateSignup(req SignupRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, describe(err))
	}
	return nil
}

func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: all fields are required", errors.ErrValidation)
	}
	return nil
}

// describe turns validator output into a short client-facing sentence.
func describe(err error) string {
	var fieldErrors validator.ValidationErrors
	if !asValidationErrors(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err.Error()
	}
	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required":
		return "all fields are required"
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", strings.ToLower(fe.Field()), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", strings.ToLower(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("invalid %s", strings.ToLower(fe.Field()))
	}
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}
