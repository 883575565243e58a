/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbquery/storagemodels"
)

// MapItem converts one raw store item into a uniform record.
func MapItem(item map[string]types.AttributeValue) (storagemodels.Record, error) {
	var rec map[string]any
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return storagemodels.Record(rec), nil
}

// MapItems converts raw store items into uniform records.
func MapItems(items []map[string]types.AttributeValue) ([]storagemodels.Record, error) {
	records := make([]storagemodels.Record, 0, len(items))
	for _, item := range items {
		rec, err := MapItem(item)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeRecords unmarshals the raw items behind a result into typed values.
func DecodeRecords[T any](res *storagemodels.Result) ([]T, error) {
	out := make([]T, 0, len(res.Raw))
	if err := attributevalue.UnmarshalListOfMaps(res.Raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %d records into %T: %w", len(res.Raw), out, err)
	}
	return out, nil
}

// withoutAttributes returns copies of items with names removed. Items are
// returned as is when names is empty.
func withoutAttributes(items []map[string]types.AttributeValue, names []string) []map[string]types.AttributeValue {
	if len(names) == 0 {
		return items
	}
	out := make([]map[string]types.AttributeValue, len(items))
	for i, item := range items {
		trimmed := make(map[string]types.AttributeValue, len(item))
		for k, v := range item {
			trimmed[k] = v
		}
		for _, n := range names {
			delete(trimmed, n)
		}
		out[i] = trimmed
	}
	return out
}

func newItemsResult(items []map[string]types.AttributeValue) (*storagemodels.Result, error) {
	records, err := MapItems(items)
	if err != nil {
		return nil, err
	}
	return &storagemodels.Result{Records: records, Raw: items}, nil
}

func newCountResult(count, scanned int64) *storagemodels.Result {
	return &storagemodels.Result{Count: &count, ScannedCount: scanned}
}
