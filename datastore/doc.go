/*
Package datastore defines the store capability ddbquery consumes.

The Client interface mirrors the subset of the AWS SDK v2 DynamoDB client used
by the engine:

	type Client interface {
	    GetItem(...)
	    BatchGetItem(...)
	    Query(...)
	    Scan(...)
	    PutItem(...)
	    UpdateItem(...)
	    DeleteItem(...)
	    DescribeTable(...)
	}

Implementations:
  - *dynamodb.Client: the real service
  - mock: In-memory implementation for testing
*/
package datastore
