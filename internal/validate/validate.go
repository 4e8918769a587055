// internal/validate/validate.go
package validate

import "github.com/go-playground/validator/v10"

var v *validator.Validate

func init() {
	v = validator.New()
}

// Struct validates a struct against its `validate` tags.
func Struct(s interface{}) error {
	return v.Struct(s)
}
