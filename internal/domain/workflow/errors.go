// Package workflow defines the error taxonomy shared by the lifecycle engines.
package workflow

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError reports an entity id that does not resolve.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidTransitionError reports a status move the entity's state table does
// not allow. Required names the status the operation expects; it is empty for
// rejections coming from the generic transition table.
type InvalidTransitionError struct {
	Entity    string
	Current   string
	Requested string
	Required  string
}

func (e *InvalidTransitionError) Error() string {
	if e.Required != "" {
		return fmt.Sprintf("%s: requires status %s, current status is %s", e.Entity, e.Required, e.Current)
	}
	return fmt.Sprintf("%s: invalid transition from %s to %s", e.Entity, e.Current, e.Requested)
}

// ForbiddenError reports a role or ownership constraint failure.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// ValidationError reports a malformed or out-of-range payload, rejected
// before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func InvalidTransition(entity, current, requested string) error {
	return &InvalidTransitionError{Entity: entity, Current: current, Requested: requested}
}

// RequiresStatus reports an operation invoked outside its required source status.
func RequiresStatus(entity, required, current string) error {
	return &InvalidTransitionError{Entity: entity, Required: required, Current: current}
}

func Forbidden(format string, args ...interface{}) error {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsForbidden(err error) bool {
	var e *ForbiddenError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// HTTPStatus maps a domain error to the response code handlers should use.
// Losing a status race surfaces as InvalidTransition, so conflicts map to 409.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidTransition(err):
		return http.StatusConflict
	case IsForbidden(err):
		return http.StatusForbidden
	case IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
