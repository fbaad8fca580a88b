package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// validator names fields by their koanf keys, so a failure reads the same
// as the YAML or APP_ variable that caused it.
var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})

	return v
})

// Validate checks every section. Entry points call it before wiring
// anything so a bad deployment fails at startup.
func (c *Config) Validate() error {
	err := structValidator().Struct(c)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	lines := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		lines[i] = describeField(fe)
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(lines, "\n  "))
}

// ValidateCredentials reports whether an API key source is configured.
// The CLI needs a key up front; the lambda and server find out on the first
// request.
func (c *Config) ValidateCredentials() error {
	if c.Credentials.Source() == "not_configured" {
		return errors.New("credentials: set api_key, or secret_name and region")
	}

	return nil
}

func describeField(fe validator.FieldError) string {
	key := keyPath(fe.Namespace())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, param)
	case "min":
		return key + " must be at least " + param
	case "max":
		return key + " must be at most " + param
	case "oneof":
		return key + " must be one of: " + param
	case "url":
		return key + " must be a valid URL"
	case "startswith":
		return fmt.Sprintf("%s must start with %q", key, param)
	default:
		return fmt.Sprintf("%s failed validation: %s", key, fe.Tag())
	}
}

// keyPath drops the root type from "Config.client.circuit_breaker.timeout".
func keyPath(namespace string) string {
	_, key, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return key
}
