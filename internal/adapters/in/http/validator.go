package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts validator/v10 to echo.Validator.
type RequestValidator struct {
	validate *validatorv10.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validatorv10.New()}
}

// Validate reports every failing field in one 400 error.
func (v *RequestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validatorv10.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
	}
	return echo.NewHTTPError(http.StatusBadRequest, strings.Join(messages, "; "))
}
