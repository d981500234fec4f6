// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package validation wraps go-playground/validator v10 behind a thread-safe
// singleton with human-readable error messages. Used for configuration
// records and admin mutation requests.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Error returns a human-readable message for the failed rule.
func (e FieldError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", e.Field, e.Param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", e.Field, e.Param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", e.Field, e.Param)
	case "min":
		return fmt.Sprintf("%s must have at least %s elements", e.Field, e.Param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", e.Field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", e.Field)
	default:
		return fmt.Sprintf("%s failed validation rule %q", e.Field, e.Tag)
	}
}

// StructError is the collection of all failed rules for one struct.
type StructError struct {
	Fields []FieldError
}

// Error implements the error interface, joining all field messages.
func (e *StructError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the singleton validator instance. Struct metadata is
// cached by the library, so sharing one instance is both safe and fast.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct via its `validate` tags. Returns nil on
// success or a *StructError listing every failed rule.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &StructError{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{
			Field: fe.Namespace(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		}
	}
	return out
}
