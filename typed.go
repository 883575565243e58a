/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddbquery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/suparena/ddbquery/datastore/ddb"
	"github.com/suparena/ddbquery/storagemodels"
)

// TypedTable reads and writes one table as values of T. T is (un)marshalled
// with attributevalue, so `dynamodbav` struct tags apply.
type TypedTable[T any] struct {
	table *ddb.Table
}

// Typed returns a typed view of the named table.
func Typed[T any](db *DB, name string) *TypedTable[T] {
	return &TypedTable[T]{table: db.Table(name)}
}

// Find returns the matching items and the cursor of an incomplete read.
func (t *TypedTable[T]) Find(ctx context.Context, ps storagemodels.PredicateSet) ([]T, string, error) {
	res, err := t.table.Find(ctx, ps)
	if err != nil {
		return nil, "", err
	}
	items, err := ddb.DecodeRecords[T](res)
	if err != nil {
		return nil, "", err
	}
	return items, res.Cursor, nil
}

// First returns the first matching item, or nil.
func (t *TypedTable[T]) First(ctx context.Context, ps storagemodels.PredicateSet) (*T, error) {
	items, _, err := t.Find(ctx, ps.WithLimit(1))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// Put stores entity.
func (t *TypedTable[T]) Put(ctx context.Context, entity T) error {
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", entity, err)
	}
	item := make(map[string]any, len(av))
	for k, v := range av {
		item[k] = v
	}
	return t.table.Insert(ctx, item)
}

// Count returns the number of matching items.
func (t *TypedTable[T]) Count(ctx context.Context, ps storagemodels.PredicateSet) (int64, error) {
	res, err := t.table.Count(ctx, ps)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}
