// Package validation configures request validation for the HTTP API.
//
// gin binds and validates request DTOs with go-playground/validator. This
// package registers the rules the DTOs rely on and turns validator errors into
// client-facing validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/models"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// Register installs the custom rules on gin's validator engine. Safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		registerErr = Configure(v)
	})
	return registerErr
}

// Configure registers the tag name func and custom rules on v.
func Configure(v *validator.Validate) error {
	// Use JSON or query tag names in error messages
	v.RegisterTagNameFunc(fieldName)

	if err := v.RegisterValidation("shelf", validShelf); err != nil {
		return fmt.Errorf("register shelf validation: %w", err)
	}
	return nil
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// validShelf accepts the names of shelves a book can be stored on.
func validShelf(fl validator.FieldLevel) bool {
	return models.IsStoredShelf(fl.Field().String())
}

// Error converts a binding error to a validation error with a readable message.
func Error(err error) *apperror.Error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// malformed JSON, wrong types and the like
		return apperror.Validation("Invalid request").Wrap(err)
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msgs = append(msgs, e.Field()+" "+friendlyMessage(e))
	}
	return apperror.Validation(strings.Join(msgs, "; "))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "shelf":
		return "must be one of: " + strings.Join(models.DefaultShelves, ", ")
	default:
		return "is invalid"
	}
}
