package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

var v = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New(validator.WithRequiredStructEnabled())
	// report JSON names so errors match what the client sent
	vd.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return vd
}

// Struct validates a request DTO and returns the first failure as a domain error.
func Struct(dst any) error {
	err := v.Struct(dst)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return domain.ErrInternal(err)
	}
	return fieldError(ves[0])
}

func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.ErrMissingField(field)
	case "min", "gte":
		return domain.ErrInvalidField(field, fmt.Sprintf("must be at least %s", fe.Param()))
	case "max", "lte":
		return domain.ErrInvalidField(field, fmt.Sprintf("must be at most %s", fe.Param()))
	case "oneof":
		return domain.ErrInvalidField(field, "must be one of "+fe.Param())
	default:
		return domain.ErrInvalidField(field, "failed "+fe.Tag())
	}
}
