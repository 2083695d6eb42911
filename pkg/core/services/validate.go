package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateParams runs the struct's validate tags and converts failures into a field-level validation error
func validateParams(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate parameters: %w", err)
	}

	fields := model.FieldErrors{}
	for _, fe := range validationErrors {
		fields.Add(fieldName(fe.Field()), describeRule(fe))
	}
	return fields.Err()
}

func fieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
