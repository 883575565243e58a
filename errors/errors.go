/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors. Every error produced by ddbquery matches exactly one of these.
var (
	// ErrConnection is returned for transport, credential and service-unavailable failures
	ErrConnection = errors.New("connection failure")

	// ErrInvalidInput is returned when input validation fails before any network call
	ErrInvalidInput = errors.New("invalid input")

	// ErrQuery is returned for request shapes the compiler does not accept
	ErrQuery = errors.New("unsupported query")

	// ErrSchemaNotFound is returned when the target table does not exist
	ErrSchemaNotFound = errors.New("table schema not found")

	// ErrThroughputExceeded is returned when provisioned throughput is exhausted
	ErrThroughputExceeded = errors.New("provisioned throughput exceeded")

	// ErrRequestLimitExceeded is returned when the account request limit is hit
	ErrRequestLimitExceeded = errors.New("request limit exceeded")

	// ErrBatchPartial accompanies a partial batch-get result as a warning
	ErrBatchPartial = errors.New("batch partially processed")

	// ErrOperation is the catch-all for store failures that match nothing more specific
	ErrOperation = errors.New("operation failed")
)

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// QueryError represents a request the compiler cannot turn into a store operation
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("unsupported query: %s", e.Reason)
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

// SchemaNotFoundError represents a missing table
type SchemaNotFoundError struct {
	Table string
	Err   error
}

func (e *SchemaNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("table %q not found: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("table %q not found", e.Table)
}

func (e *SchemaNotFoundError) Is(target error) bool {
	return target == ErrSchemaNotFound
}

func (e *SchemaNotFoundError) Unwrap() error {
	return e.Err
}

// BatchPartialError reports batch-get keys the store left unprocessed.
// It is attached to a result as a warning and never returned as a failure.
type BatchPartialError struct {
	Table       string
	Unprocessed int
}

func (e *BatchPartialError) Error() string {
	return fmt.Sprintf("batch get on %q left %d keys unprocessed", e.Table, e.Unprocessed)
}

func (e *BatchPartialError) Is(target error) bool {
	return target == ErrBatchPartial
}

// StoreError is a classified failure returned by the store. Kind is one of
// ErrConnection, ErrThroughputExceeded, ErrRequestLimitExceeded or ErrOperation.
type StoreError struct {
	Kind      error
	Code      string
	Table     string
	Operation string
	Key       string
	Err       error
}

func (e *StoreError) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	if e.Table != "" {
		fmt.Fprintf(&b, " on %q", e.Table)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key %s", e.Key)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *StoreError) Is(target error) bool {
	return target == e.Kind
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewQueryError creates a new QueryError
func NewQueryError(format string, args ...any) error {
	return &QueryError{Reason: fmt.Sprintf(format, args...)}
}

// NewSchemaNotFoundError creates a new SchemaNotFoundError
func NewSchemaNotFoundError(table string, cause error) error {
	return &SchemaNotFoundError{Table: table, Err: cause}
}

// NewBatchPartialError creates a new BatchPartialError
func NewBatchPartialError(table string, unprocessed int) error {
	return &BatchPartialError{Table: table, Unprocessed: unprocessed}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsQueryError checks if an error is an unsupported query error
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQuery)
}

// IsSchemaNotFound checks if an error is a missing table error
func IsSchemaNotFound(err error) bool {
	return errors.Is(err, ErrSchemaNotFound)
}

// IsThrottled checks if the store rejected the call for rate reasons
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThroughputExceeded) || errors.Is(err, ErrRequestLimitExceeded)
}

// IsTransient reports whether err is worth retrying later: throttling or connection failures.
func IsTransient(err error) bool {
	return IsThrottled(err) || errors.Is(err, ErrConnection)
}
