/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"context"
	"errors"
	"net"

	"github.com/aws/smithy-go"
)

// codeKinds maps DynamoDB machine-readable error codes to taxonomy kinds.
var codeKinds = map[string]error{
	"ProvisionedThroughputExceededException": ErrThroughputExceeded,
	"ThrottlingException":                    ErrThroughputExceeded,
	"RequestLimitExceeded":                   ErrRequestLimitExceeded,
	"LimitExceededException":                 ErrRequestLimitExceeded,
	"InternalServerError":                    ErrConnection,
	"ServiceUnavailable":                     ErrConnection,
	"ServiceUnavailableException":            ErrConnection,
	"UnrecognizedClientException":            ErrConnection,
	"InvalidSignatureException":              ErrConnection,
	"MissingAuthenticationToken":             ErrConnection,
	"ExpiredTokenException":                  ErrConnection,
	"AccessDeniedException":                  ErrConnection,
}

// Classify converts a raw store error into the most specific taxonomy error.
// Errors already classified are returned unchanged; unknown codes become ErrOperation.
func Classify(err error, table, operation, key string) error {
	if err == nil {
		return nil
	}
	if alreadyClassified(err) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if code == "ResourceNotFoundException" {
			return NewSchemaNotFoundError(table, err)
		}
		kind, ok := codeKinds[code]
		if !ok {
			kind = ErrOperation
		}
		return &StoreError{Kind: kind, Code: code, Table: table, Operation: operation, Key: key, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &StoreError{Kind: ErrConnection, Table: table, Operation: operation, Key: key, Err: err}
	}

	return &StoreError{Kind: ErrOperation, Table: table, Operation: operation, Key: key, Err: err}
}

func alreadyClassified(err error) bool {
	for _, kind := range []error{
		ErrConnection, ErrInvalidInput, ErrQuery, ErrSchemaNotFound,
		ErrThroughputExceeded, ErrRequestLimitExceeded, ErrOperation,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
