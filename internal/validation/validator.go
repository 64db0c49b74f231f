// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package validation provides struct validation (go-playground/validator v10)
// and the post-merge integrity checks that decide whether a sync run's
// catalogue can be trusted.
//
// Struct validation uses a thread-safe singleton validator with a custom
// "country" tag (two upper-case ASCII letters):
//
//	type coverageQuery struct {
//	    Home string `validate:"required,country"`
//	    Max  int    `validate:"gte=0,lte=50"`
//	}
//
//	if err := validation.ValidateStruct(&q); err != nil {
//	    apiErr := err.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field name that failed validation.
func (e *FieldError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string {
	return e.tag
}

// Error returns a human-readable message.
func (e *FieldError) Error() string {
	return e.message
}

// StructError collects the field failures of one struct.
type StructError struct {
	errors []FieldError
}

// Errors returns the individual field failures.
func (se *StructError) Errors() []FieldError {
	return se.errors
}

// Error joins every field message.
func (se *StructError) Error() string {
	if len(se.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(se.errors))
	for i := range se.errors {
		messages = append(messages, se.errors[i].message)
	}
	return strings.Join(messages, "; ")
}

// ToAPIError converts the failures to the API error body.
func (se *StructError) ToAPIError() *models.APIError {
	if len(se.errors) == 1 {
		fe := se.errors[0]
		return &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: fe.message,
			Details: map[string]interface{}{
				"field": fe.field,
				"tag":   fe.tag,
				"value": fe.value,
			},
		}
	}

	fields := make([]map[string]interface{}, 0, len(se.errors))
	for i := range se.errors {
		fields = append(fields, map[string]interface{}{
			"field":   se.errors[i].field,
			"tag":     se.errors[i].tag,
			"message": se.errors[i].message,
		})
	}
	return &models.APIError{
		Code:    "VALIDATION_ERROR",
		Message: se.Error(),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("country", validateCountryCode); err != nil {
			panic(fmt.Sprintf("validation: register country tag: %v", err))
		}
	})
	return validate
}

// validateCountryCode accepts already-normalized ISO-3166-1 alpha-2 codes.
func validateCountryCode(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	code, ok := countries.Normalize(raw)
	return ok && code == raw
}

// ValidateStruct validates s. It returns nil when s is valid.
func ValidateStruct(s interface{}) *StructError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &StructError{errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: translateError(fe),
		}
	}
	return &StructError{errors: out}
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"country":  "%s must be an upper-case ISO-3166-1 alpha-2 country code",
	"url":      "%s must be a valid URL",
	"dir":      "%s must be an existing directory",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Namespace()
	if field == "" {
		field = fe.Field()
	}
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
