package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator, reporting fields by their
// yaml names.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		validateInst = v
	})
	return validateInst
}

// convertValidationError turns validator errors into a single readable error
// naming the first offending yaml path.
func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	field := yamlPath(fe)
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "min", "max", "gte":
		return fmt.Errorf("%s: %v violates %s=%s", field, fe.Value(), fe.Tag(), fe.Param())
	case "required_with":
		return fmt.Errorf("%s: required when %s is set", field, snakeCase(fe.Param()))
	default:
		return fmt.Errorf("%s: failed validation for tag '%s'", field, fe.Tag())
	}
}

// yamlPath drops the root struct name from the namespace:
// "Config.prune.workers" -> "prune.workers".
func yamlPath(fe validator.FieldError) string {
	_, rest, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return rest
}

// snakeCase converts a Go field name to its yaml key: AccessKeyID -> access_key_id.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
