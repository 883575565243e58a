/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "segments",
			message:  "must be between 1 and 100",
			expected: `validation failed for field "segments": must be between 1 and 100`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "empty item",
			expected: "validation failed: empty item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}
			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestQueryError(t *testing.T) {
	err := NewQueryError("raw request %q", "SELECT 1")

	expected := `unsupported query: raw request "SELECT 1"`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !IsQueryError(err) {
		t.Error("IsQueryError should return true for QueryError")
	}
}

func TestBatchPartialError(t *testing.T) {
	err := NewBatchPartialError("users", 3)

	if !errors.Is(err, ErrBatchPartial) {
		t.Error("BatchPartialError should match ErrBatchPartial")
	}
	if IsTransient(err) {
		t.Error("BatchPartialError is a warning, not a transient failure")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      error
		transient bool
	}{
		{
			name:      "throughput exception type",
			err:       &types.ProvisionedThroughputExceededException{Message: stringPtr("slow down")},
			kind:      ErrThroughputExceeded,
			transient: true,
		},
		{
			name:      "request limit code",
			err:       &smithy.GenericAPIError{Code: "RequestLimitExceeded"},
			kind:      ErrRequestLimitExceeded,
			transient: true,
		},
		{
			name:      "service unavailable",
			err:       &smithy.GenericAPIError{Code: "ServiceUnavailable"},
			kind:      ErrConnection,
			transient: true,
		},
		{
			name: "missing table",
			err:  &types.ResourceNotFoundException{Message: stringPtr("no table")},
			kind: ErrSchemaNotFound,
		},
		{
			name: "unknown code",
			err:  &smithy.GenericAPIError{Code: "SomethingNew"},
			kind: ErrOperation,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			kind: ErrOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("Query: %w", tt.err)
			got := Classify(wrapped, "users", "Query", "")

			if !errors.Is(got, tt.kind) {
				t.Errorf("Expected %v, got %v", tt.kind, got)
			}
			if IsTransient(got) != tt.transient {
				t.Errorf("Expected transient=%v for %v", tt.transient, got)
			}
			if !errors.Is(got, tt.err) {
				t.Error("Classified error should still wrap the original")
			}
		})
	}
}

func TestClassifyKeepsContext(t *testing.T) {
	err := Classify(&smithy.GenericAPIError{Code: "ValidationException"}, "orders", "GetItem", `{"id":"o1"}`)

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected StoreError, got %T", err)
	}
	if storeErr.Table != "orders" || storeErr.Operation != "GetItem" || storeErr.Code != "ValidationException" {
		t.Errorf("Unexpected context: %+v", storeErr)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	first := Classify(&smithy.GenericAPIError{Code: "ThrottlingException"}, "t", "Scan", "")
	second := Classify(first, "other", "Query", "")

	if first != second {
		t.Error("Classify should return already-classified errors unchanged")
	}
	if Classify(nil, "t", "Scan", "") != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrConnection,
		ErrInvalidInput,
		ErrQuery,
		ErrSchemaNotFound,
		ErrThroughputExceeded,
		ErrRequestLimitExceeded,
		ErrBatchPartial,
		ErrOperation,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}

func stringPtr(s string) *string { return &s }
