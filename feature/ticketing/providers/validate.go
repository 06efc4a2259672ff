package providers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a decoded payload against its `validate` tags.
func Validate(provider string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return &ContractViolationError{Provider: provider, Reason: strings.Join(parts, ", "), Err: err}
	}
	return &ContractViolationError{Provider: provider, Reason: "validation", Err: err}
}
