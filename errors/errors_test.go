/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("table", "orders")

	expected := `table "orders" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestBadRequestError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "formatted message",
			err:      NewBadRequestError("operator %s is not supported", "OR"),
			expected: "bad request: operator OR is not supported",
		},
		{
			name:     "wrapped provider error",
			err:      WrapBadRequest("invalid query", fmt.Errorf("ValidationException: bad")),
			expected: "bad request: invalid query: ValidationException: bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, tt.err.Error())
			}
			if !IsBadRequest(tt.err) {
				t.Error("IsBadRequest should return true")
			}
			if IsNotFound(tt.err) {
				t.Error("IsNotFound should return false")
			}
		})
	}
}

func TestInternalErrorKeepsProviderMessage(t *testing.T) {
	cause := fmt.Errorf("ProvisionedThroughputExceededException: slow down")
	err := NewInternalError("put item", "orders", cause)

	expected := `failed to put item "orders": ProvisionedThroughputExceededException: slow down`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("InternalError should unwrap to its cause")
	}
	if !IsInternal(err) {
		t.Error("IsInternal should return true")
	}
}

func TestServiceUnavailableError(t *testing.T) {
	err := NewServiceUnavailableError("dynamodb", fmt.Errorf("no credentials"))

	if !IsServiceUnavailable(err) {
		t.Error("IsServiceUnavailable should return true")
	}
	if err.Error() != "unexpected dynamodb service exception: no credentials" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrappedErrors(t *testing.T) {
	baseErr := NewNotFoundError("blob", "a/b.txt")
	wrappedErr := fmt.Errorf("get blob: %w", baseErr)

	if !errors.Is(wrappedErr, ErrNotFound) {
		t.Error("Wrapped NotFoundError should match ErrNotFound")
	}

	var nf *NotFoundError
	if !errors.As(wrappedErr, &nf) {
		t.Fatal("Should be able to extract NotFoundError from wrapped error")
	}
	if nf.Type != "blob" || nf.Key != "a/b.txt" {
		t.Errorf("Extracted error has wrong values: %+v", nf)
	}
}

func TestBatchError(t *testing.T) {
	err := &BatchError{
		Results: []map[string]any{{"id": "1"}, nil, nil},
		Failed: map[int]error{
			2: NewInternalError("put item", "orders", fmt.Errorf("boom")),
			1: NewNotFoundError("item", "2"),
		},
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("BatchError should match the kinds of its failures")
	}
	if !errors.Is(err, ErrInternal) {
		t.Error("BatchError should match the kinds of its failures")
	}
	expected := `batch completed with 2 of 3 records failing: record 1: item "2" not found; record 2: failed to put item "orders": boom`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewBadRequestError("x"), http.StatusBadRequest},
		{NewNotFoundError("table", "x"), http.StatusNotFound},
		{NewInternalError("scan", "x", nil), http.StatusInternalServerError},
		{NewServiceUnavailableError("s3", fmt.Errorf("x")), http.StatusServiceUnavailable},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
		{&BatchError{Failed: map[int]error{0: NewNotFoundError("item", "1")}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsDomainError(t *testing.T) {
	if IsDomainError(fmt.Errorf("plain")) {
		t.Error("plain errors are not domain errors")
	}
	if !IsDomainError(fmt.Errorf("wrapped: %w", NewBadRequestError("x"))) {
		t.Error("wrapped BadRequestError is a domain error")
	}
}
