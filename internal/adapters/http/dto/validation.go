package dto

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation wraps field constraint failures.
	ErrValidation = errors.New("validation failed")
	// ErrBinding wraps malformed bodies and query strings.
	ErrBinding = errors.New("binding failed")
)

// Validator reports fields by their JSON names so messages match the
// envelope the caller sent.
var Validator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
})

// Validate checks v against its validate tags.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindOptionalJSON decodes a JSON body into v, if there is one, then validates v.
func BindOptionalJSON(c *gin.Context, v any) error {
	return bindThenValidate(v, func() error {
		if err := c.ShouldBindJSON(v); !errors.Is(err, io.EOF) {
			return err
		}

		return nil
	})
}

// BindQueryAndValidate decodes the query string into v, then validates v.
func BindQueryAndValidate(c *gin.Context, v any) error {
	return bindThenValidate(v, func() error { return c.ShouldBindQuery(v) })
}

func bindThenValidate(v any, bind func() error) error {
	if err := bind(); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// IsValidationError reports whether err carries field constraint failures.
func IsValidationError(err error) bool {
	var fieldErrs validator.ValidationErrors
	return errors.As(err, &fieldErrs)
}

// ValidationErrors maps each failing field to a readable message.
func ValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out
	}

	for _, fe := range fieldErrs {
		out[fe.Field()] = describe(fe)
	}

	return out
}

func describe(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + fe.Param() + unit
	case "max":
		return "must be at most " + fe.Param() + unit
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed validation: " + fe.Tag()
	}
}
