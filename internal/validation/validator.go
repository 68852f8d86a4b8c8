package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrValidation wraps every request validation failure.
var ErrValidation = errors.New("validation failed")

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report JSON names instead of struct field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("table_name", validateTableName)
	validate.RegisterValidation("bet_type", validateBetType)
}

// Validate validates a struct and returns formatted error messages
func Validate(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors converts validator errors to user-friendly messages
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatFieldError(fieldError))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, ", "))
}

// formatFieldError formats a single field validation error
func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, strings.Replace(param, " ", " is ", 1))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "bet_type":
		return fmt.Sprintf("%s must be one of: blind, chaal, pack, show", field)
	case "table_name":
		return fmt.Sprintf("%s must contain only letters, numbers, spaces, dashes and underscores", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func validateTableName(fl validator.FieldLevel) bool {
	for _, char := range fl.Field().String() {
		if !unicode.IsLetter(char) && !unicode.IsDigit(char) && char != ' ' && char != '-' && char != '_' {
			return false
		}
	}
	return true
}

func validateBetType(fl validator.FieldLevel) bool {
	switch models.BetType(fl.Field().String()) {
	case models.BetTypeBlind, models.BetTypeChaal, models.BetTypePack, models.BetTypeShow:
		return true
	}
	return false
}

// ParseUUID validates and parses a path or query identifier.
func ParseUUID(field, value string) (uuid.UUID, error) {
	if err := validate.Var(value, "required,uuid"); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", ErrValidation, field)
	}
	return uuid.MustParse(value), nil
}
