package validate

import (
	"github.com/go-playground/validator/v10"
)

// New returns a validator that also enforces `required` on struct-typed fields such as time.Time.
func New() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
