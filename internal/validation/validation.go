// Package validation holds the shared request validator.
package validation

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its `validate` tags. Failures are
// validator.ValidationErrors, which svcErr.Map turns into InvalidArgument.
func Struct(s any) error {
	return validate.Struct(s)
}
