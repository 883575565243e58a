/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import "github.com/suparena/ddbquery/storagemodels"

// User is the fixture entity of the engine tests.
type User struct {
	ID     string `dynamodbav:"id"`
	Email  string `dynamodbav:"email"`
	Name   string `dynamodbav:"name,omitempty"`
	Status string `dynamodbav:"status,omitempty"`
	Age    int    `dynamodbav:"age,omitempty"`
	// Timestamp in RFC3339.
	CreatedAt string `dynamodbav:"createdAt,omitempty"`
}

// Order is a child entity keyed by user and order id.
type Order struct {
	UserID  string  `dynamodbav:"userId"`
	OrderID string  `dynamodbav:"orderId"`
	Total   float64 `dynamodbav:"total"`
	Status  string  `dynamodbav:"status"`
	// Timestamp in RFC3339.
	CreatedAt string `dynamodbav:"createdAt"`
}

// UsersSchema declares the users table: partition key id, GSIs on email and status/age.
func UsersSchema() storagemodels.TableSchema {
	return storagemodels.TableSchema{
		Name: "users",
		Key: storagemodels.TableKeySchema{
			PartitionKey: storagemodels.KeyAttribute{Name: "id", Type: "S"},
		},
		Indexes: []storagemodels.SecondaryIndex{
			{
				Name:         "email-index",
				Kind:         storagemodels.IndexGlobal,
				PartitionKey: storagemodels.KeyAttribute{Name: "email", Type: "S"},
				Projection:   "ALL",
			},
			{
				Name:         "status-age-index",
				Kind:         storagemodels.IndexGlobal,
				PartitionKey: storagemodels.KeyAttribute{Name: "status", Type: "S"},
				SortKey:      &storagemodels.KeyAttribute{Name: "age", Type: "N"},
				Projection:   "ALL",
			},
		},
	}
}

// OrdersSchema declares the orders table: userId/orderId with an LSI on createdAt and a GSI on status.
func OrdersSchema() storagemodels.TableSchema {
	return storagemodels.TableSchema{
		Name: "orders",
		Key: storagemodels.TableKeySchema{
			PartitionKey: storagemodels.KeyAttribute{Name: "userId", Type: "S"},
			SortKey:      &storagemodels.KeyAttribute{Name: "orderId", Type: "S"},
		},
		Indexes: []storagemodels.SecondaryIndex{
			{
				Name:         "created-index",
				Kind:         storagemodels.IndexLocal,
				PartitionKey: storagemodels.KeyAttribute{Name: "userId", Type: "S"},
				SortKey:      &storagemodels.KeyAttribute{Name: "createdAt", Type: "S"},
				Projection:   "ALL",
			},
			{
				Name:         "status-index",
				Kind:         storagemodels.IndexGlobal,
				PartitionKey: storagemodels.KeyAttribute{Name: "status", Type: "S"},
				SortKey:      &storagemodels.KeyAttribute{Name: "createdAt", Type: "S"},
				Projection:   "ALL",
			},
		},
	}
}
