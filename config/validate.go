package config

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/shadowkit/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// FieldError describes one failed struct-tag rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report the key the user wrote in config.yml, not the Go field name.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"mapstructure", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return strings.ToLower(fld.Name)
		})
	})
	return validate
}

// Validate checks `validate:"..."` struct tags on s. Failures come back as a
// single INVALID_INPUT AppError whose details list every offending field.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("config validation failed").WithCause(err)
	}

	fields := make([]FieldError, 0, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		path := fieldPath(e.Namespace())
		msg := describe(e)
		fields = append(fields, FieldError{Field: path, Message: msg})
		messages = append(messages, path+" "+msg)
	}

	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", fields)
}

// fieldPath drops the root struct name: "Config.audio.chunk_size" -> "audio.chunk_size".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "url":
		return "must be a valid URL"
	case "hostname_port":
		return "must be host:port"
	default:
		return "is invalid"
	}
}
