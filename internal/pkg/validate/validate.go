// Package validate wraps validator/v10 so failures surface as domain.ErrValidation
// and name fields the way clients spell them.
package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marque-api/internal/domain"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return val
}

// Struct validates s using its validate tags. Fields are reported by their JSON name.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrValidation)
}

// Var validates a single value against a tag expression such as "e164".
func Var(field string, value interface{}, tag string) error {
	if err := v.Var(value, tag); err != nil {
		return fmt.Errorf("field '%s' failed '%s': %w", field, tag, domain.ErrValidation)
	}
	return nil
}
