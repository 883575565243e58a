/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyAttribute names a key attribute and its scalar type ("S", "N" or "B").
type KeyAttribute struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// TableKeySchema is the primary key of a table.
type TableKeySchema struct {
	PartitionKey KeyAttribute  `json:"partitionKey" yaml:"partitionKey"`
	SortKey      *KeyAttribute `json:"sortKey,omitempty" yaml:"sortKey,omitempty"`
}

// IndexKind distinguishes global from local secondary indexes.
type IndexKind string

const (
	IndexGlobal IndexKind = "global"
	IndexLocal  IndexKind = "local"
)

// SecondaryIndex describes one GSI or LSI.
type SecondaryIndex struct {
	Name         string        `json:"name" yaml:"name"`
	Kind         IndexKind     `json:"kind" yaml:"kind"`
	PartitionKey KeyAttribute  `json:"partitionKey" yaml:"partitionKey"`
	SortKey      *KeyAttribute `json:"sortKey,omitempty" yaml:"sortKey,omitempty"`
	// Projection is ALL, KEYS_ONLY or INCLUDE.
	Projection string `json:"projection,omitempty" yaml:"projection,omitempty"`
}

// TableSchema is the key schema plus the secondary-index catalog of one table.
// Indexes keep their declaration order; the resolver breaks ties with it.
type TableSchema struct {
	Name    string           `json:"name" yaml:"name"`
	Key     TableKeySchema   `json:"key" yaml:"key"`
	Indexes []SecondaryIndex `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// SortKeyName returns the table sort key name, or "" if the table has none.
func (s TableSchema) SortKeyName() string {
	if s.Key.SortKey == nil {
		return ""
	}
	return s.Key.SortKey.Name
}

// KeyType returns the declared type of a primary key attribute, defaulting to "S".
func (s TableSchema) KeyType(column string) string {
	if s.Key.PartitionKey.Name == column && s.Key.PartitionKey.Type != "" {
		return s.Key.PartitionKey.Type
	}
	if s.Key.SortKey != nil && s.Key.SortKey.Name == column && s.Key.SortKey.Type != "" {
		return s.Key.SortKey.Type
	}
	for _, idx := range s.Indexes {
		if idx.PartitionKey.Name == column && idx.PartitionKey.Type != "" {
			return idx.PartitionKey.Type
		}
		if idx.SortKey != nil && idx.SortKey.Name == column && idx.SortKey.Type != "" {
			return idx.SortKey.Type
		}
	}
	return "S"
}

// IndexRefKind identifies which access path a match uses.
type IndexRefKind string

const (
	AccessPrimary IndexRefKind = "primary"
	AccessGSI     IndexRefKind = "gsi"
	AccessLSI     IndexRefKind = "lsi"
)

// IndexRef identifies the chosen index.
type IndexRef struct {
	Kind IndexRefKind
	Name string
}

// String renders "primary", "gsi:<name>" or "lsi:<name>".
func (r IndexRef) String() string {
	if r.Kind == AccessPrimary || r.Kind == "" {
		return string(AccessPrimary)
	}
	return string(r.Kind) + ":" + r.Name
}

// AccessPathMatch is the resolver's output. KeyConditions and FilterConditions are disjoint.
type AccessPathMatch struct {
	Index            IndexRef
	KeyConditions    []Predicate
	FilterConditions []Predicate
	// PartitionKey and SortKey are the key names of the chosen index.
	PartitionKey string
	SortKey      string
}

// OperationKind is the native store operation a descriptor compiles to.
type OperationKind string

const (
	OpGetItem      OperationKind = "GetItem"
	OpBatchGetItem OperationKind = "BatchGetItem"
	OpQuery        OperationKind = "Query"
	OpScan         OperationKind = "Scan"
	OpPutItem      OperationKind = "PutItem"
	OpUpdateItem   OperationKind = "UpdateItem"
	OpDeleteItem   OperationKind = "DeleteItem"
)

// OperationDescriptor is a compiled, ready-to-run store operation.
type OperationDescriptor struct {
	Kind      OperationKind
	TableName string
	// IndexName is set only for Query on a secondary index.
	IndexName string
	Access    *AccessPathMatch

	KeyConditionExpression string
	FilterExpression       string
	ProjectionExpression   string
	UpdateExpression       string
	Names                  map[string]string
	Values                 map[string]types.AttributeValue

	// Key is the identifying key for GetItem, UpdateItem and DeleteItem.
	Key map[string]types.AttributeValue
	// Keys holds every key of a BatchGetItem before chunking.
	Keys []map[string]types.AttributeValue
	// Item is the PutItem payload.
	Item map[string]types.AttributeValue

	// Limit is the number of records the caller wants; 0 means unbounded.
	Limit int
	// ScanForward is nil when no native ordering applies.
	ScanForward *bool
	CountOnly   bool

	// KeyAttributes names the attributes of a continuation key for this operation.
	KeyAttributes []string
	// HiddenAttributes are key attributes projected only to build cursors.
	// They are removed from returned records.
	HiddenAttributes  []string
	ExclusiveStartKey map[string]types.AttributeValue
	Segment           *int32
	TotalSegments     *int32
}

// HasFilter reports whether the descriptor carries a filter expression.
func (d *OperationDescriptor) HasFilter() bool {
	return d.FilterExpression != ""
}

// Record is a uniform, store-independent result row.
type Record map[string]any

// Result is what the engine hands back to a caller: records or a scalar count,
// plus an opaque cursor when the read is incomplete.
type Result struct {
	Records []Record
	// Count is set only for count-only requests.
	Count        *int64
	Cursor       string
	ScannedCount int64
	// Raw keeps the store items behind Records for typed decoding.
	Raw []map[string]types.AttributeValue
	// Warnings carries non-fatal problems such as unprocessed batch keys.
	Warnings []error
}

// CountResult is the outcome of a table-wide or segmented count.
type CountResult struct {
	Total    int64
	Segments int
	// FailedSegments lists segments skipped after a transient error; they contributed 0.
	FailedSegments []int
}

// Partial reports whether any segment was skipped.
func (c CountResult) Partial() bool {
	return len(c.FailedSegments) > 0
}
