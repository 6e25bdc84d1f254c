/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Common sentinel errors
var (
	// ErrBadRequest is returned for malformed input, unsupported filter constructs and missing required fields
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound is returned when a table, domain, container, blob or notification resource is absent
	ErrNotFound = errors.New("resource not found")

	// ErrInternal is returned for provider or transport failures
	ErrInternal = errors.New("internal error")

	// ErrServiceUnavailable is returned when a provider client cannot be built or authenticated
	ErrServiceUnavailable = errors.New("service unavailable")
)

// BadRequestError represents a client input problem
type BadRequestError struct {
	Message string
	Err     error
}

func (e *BadRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad request: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("bad request: %s", e.Message)
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}

func (e *BadRequestError) Is(target error) bool {
	return target == ErrBadRequest
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Type string
	Key  string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Type)
	}
	return fmt.Sprintf("%s %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InternalError wraps a provider failure. The provider message is kept verbatim.
type InternalError struct {
	Op       string
	Resource string
	Err      error
}

func (e *InternalError) Error() string {
	var b strings.Builder
	b.WriteString("failed to ")
	b.WriteString(e.Op)
	if e.Resource != "" {
		fmt.Fprintf(&b, " %q", e.Resource)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// ServiceUnavailableError represents a client construction or authentication failure
type ServiceUnavailableError struct {
	Provider string
	Err      error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("unexpected %s service exception: %v", e.Provider, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}

func (e *ServiceUnavailableError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// BatchError reports a multi-record request that ran with continue enabled.
// Results holds the output of every record, with nil at failed positions.
type BatchError struct {
	Results []map[string]any
	Failed  map[int]error
}

func (e *BatchError) Error() string {
	idx := make([]int, 0, len(e.Failed))
	for i := range e.Failed {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("record %d: %v", i, e.Failed[i]))
	}
	return fmt.Sprintf("batch completed with %d of %d records failing: %s",
		len(e.Failed), len(e.Results), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures so errors.Is can match their kinds.
func (e *BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		out = append(out, err)
	}
	return out
}

// Helper functions for creating errors

// NewBadRequestError creates a new BadRequestError from a format string
func NewBadRequestError(format string, args ...any) error {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

// WrapBadRequest wraps a provider error that was caused by client input
func WrapBadRequest(message string, err error) error {
	return &BadRequestError{Message: message, Err: err}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resourceType, key string) error {
	return &NotFoundError{Type: resourceType, Key: key}
}

// WrapNotFound creates a NotFoundError that keeps the provider error
func WrapNotFound(resourceType, key string, err error) error {
	return &NotFoundError{Type: resourceType, Key: key, Err: err}
}

// NewInternalError creates a new InternalError
func NewInternalError(op, resource string, err error) error {
	return &InternalError{Op: op, Resource: resource, Err: err}
}

// NewServiceUnavailableError creates a new ServiceUnavailableError
func NewServiceUnavailableError(provider string, err error) error {
	return &ServiceUnavailableError{Provider: provider, Err: err}
}

// IsBadRequest checks if an error is a bad request error
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// IsServiceUnavailable checks if an error is a service unavailable error
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsDomainError reports whether err already belongs to the taxonomy.
func IsDomainError(err error) bool {
	return IsBadRequest(err) || IsNotFound(err) || IsInternal(err) || IsServiceUnavailable(err)
}

// StatusCode maps an error to the HTTP status the host should answer with.
func StatusCode(err error) int {
	var batch *BatchError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &batch):
		return http.StatusBadRequest
	case IsBadRequest(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsServiceUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
