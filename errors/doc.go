/*
Package errors provides the error taxonomy for the ddbquery library.

Every failure matches exactly one sentinel and can be checked with the standard
errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrConnection           = errors.New("connection failure")
	    ErrInvalidInput         = errors.New("invalid input")
	    ErrQuery                = errors.New("unsupported query")
	    ErrSchemaNotFound       = errors.New("table schema not found")
	    ErrThroughputExceeded   = errors.New("provisioned throughput exceeded")
	    ErrRequestLimitExceeded = errors.New("request limit exceeded")
	    ErrBatchPartial         = errors.New("batch partially processed")
	    ErrOperation            = errors.New("operation failed")
	)

Validation and query errors are raised before any network call. Store failures
are passed through Classify, which reads the DynamoDB error code:

	out, err := client.Query(ctx, input)
	if err != nil {
	    return errors.Classify(err, table, "Query", "")
	}

	if errors.IsThrottled(err) {
	    // back off and try again later
	}

ErrBatchPartial is never returned as a failure; it is attached to batch-get
results as a warning.
*/
package errors
