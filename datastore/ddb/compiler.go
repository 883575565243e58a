/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	errs "github.com/suparena/ddbquery/errors"
	"github.com/suparena/ddbquery/storagemodels"
)

// ValidatePredicateSet rejects malformed requests. It needs no schema, so the
// engine runs it before any network call.
func ValidatePredicateSet(ps storagemodels.PredicateSet) error {
	if strings.TrimSpace(ps.Raw) != "" {
		return errs.NewQueryError("raw text requests are not supported, use structured predicates")
	}
	if ps.Limit < 0 {
		return errs.NewValidationError("limit", "must not be negative")
	}
	if ps.Limit > math.MaxInt32 {
		return errs.NewValidationError("limit", fmt.Sprintf("must not exceed %d", math.MaxInt32))
	}
	if ps.Order != nil {
		switch ps.Order.Direction {
		case "", storagemodels.Ascending, storagemodels.Descending:
		default:
			return errs.NewValidationError("orderBy", fmt.Sprintf("unknown direction %q", ps.Order.Direction))
		}
	}
	for _, p := range ps.Predicates {
		if err := validatePredicate(p); err != nil {
			return err
		}
	}
	return nil
}

func validatePredicate(p storagemodels.Predicate) error {
	if p.Column == "" {
		return errs.NewValidationError("column", "predicate column is empty")
	}
	if !p.Operator.Valid() {
		return errs.NewQueryError("unsupported operator %q on %q", p.Operator, p.Column)
	}
	want := wantValues(p.Operator)
	switch {
	case want < 0 && len(p.Values) == 0:
		return errs.NewValidationError(p.Column, fmt.Sprintf("%s needs at least one value", p.Operator))
	case want >= 0 && len(p.Values) != want:
		return errs.NewValidationError(p.Column, fmt.Sprintf("%s needs %d value(s), got %d", p.Operator, want, len(p.Values)))
	}
	return nil
}

// Compile turns a predicate set into the cheapest native operation for schema.
func Compile(schema storagemodels.TableSchema, ps storagemodels.PredicateSet) (*storagemodels.OperationDescriptor, error) {
	if err := ValidatePredicateSet(ps); err != nil {
		return nil, err
	}

	if !ps.CountOnly {
		if values, ok := DetectBatchGet(schema, ps.Predicates); ok {
			return compileBatchGet(schema, ps, values)
		}
	}

	match, ok := ResolveAccessPath(schema, ps.Predicates)
	if !ok {
		return compileScan(schema, ps)
	}
	if !ps.CountOnly && pinsItem(schema, match) {
		return compileGetItem(schema, ps, match)
	}
	return compileQuery(schema, ps, match)
}

// CompileScan compiles ps as a Scan regardless of available indexes. Every predicate becomes a filter.
func CompileScan(schema storagemodels.TableSchema, ps storagemodels.PredicateSet) (*storagemodels.OperationDescriptor, error) {
	if err := ValidatePredicateSet(ps); err != nil {
		return nil, err
	}
	return compileScan(schema, ps)
}

// pinsItem reports whether match is a primary-key lookup of exactly one item with nothing left to filter.
func pinsItem(schema storagemodels.TableSchema, match *storagemodels.AccessPathMatch) bool {
	if match.Index.Kind != storagemodels.AccessPrimary || len(match.FilterConditions) > 0 {
		return false
	}
	want := 1
	if schema.Key.SortKey != nil {
		want = 2
	}
	if len(match.KeyConditions) != want {
		return false
	}
	for _, p := range match.KeyConditions {
		if p.Operator != storagemodels.OpEq {
			return false
		}
	}
	return true
}

func newDescriptor(kind storagemodels.OperationKind, schema storagemodels.TableSchema, ps storagemodels.PredicateSet) *storagemodels.OperationDescriptor {
	return &storagemodels.OperationDescriptor{
		Kind:      kind,
		TableName: schema.Name,
		Limit:     ps.Limit,
		CountOnly: ps.CountOnly,
	}
}

func compileGetItem(schema storagemodels.TableSchema, ps storagemodels.PredicateSet, match *storagemodels.AccessPathMatch) (*storagemodels.OperationDescriptor, error) {
	desc := newDescriptor(storagemodels.OpGetItem, schema, ps)
	desc.Access = match

	key, err := keyFromPredicates(schema, match.KeyConditions)
	if err != nil {
		return nil, err
	}
	desc.Key = key

	b := newExprBuilder(schema)
	if len(ps.Projection) > 0 {
		desc.ProjectionExpression = b.projection(ps.Projection)
	}
	desc.Names = b.namesOrNil()
	return desc, nil
}

func compileBatchGet(schema storagemodels.TableSchema, ps storagemodels.PredicateSet, values []any) (*storagemodels.OperationDescriptor, error) {
	desc := newDescriptor(storagemodels.OpBatchGetItem, schema, ps)
	pk := schema.Key.PartitionKey

	// The store rejects duplicate keys in one batch.
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		av, err := toKeyAttributeValue(v, pk.Type)
		if err != nil {
			return nil, errs.NewValidationError(pk.Name, err.Error())
		}
		id := keyString(map[string]types.AttributeValue{pk.Name: av})
		if seen[id] {
			continue
		}
		seen[id] = true
		desc.Keys = append(desc.Keys, map[string]types.AttributeValue{pk.Name: av})
	}

	b := newExprBuilder(schema)
	if len(ps.Projection) > 0 {
		desc.ProjectionExpression = b.projection(ps.Projection)
	}
	desc.Names = b.namesOrNil()
	return desc, nil
}

func compileQuery(schema storagemodels.TableSchema, ps storagemodels.PredicateSet, match *storagemodels.AccessPathMatch) (*storagemodels.OperationDescriptor, error) {
	desc := newDescriptor(storagemodels.OpQuery, schema, ps)
	desc.Access = match
	if match.Index.Kind != storagemodels.AccessPrimary {
		desc.IndexName = match.Index.Name
	}

	b := newExprBuilder(schema)
	keyExpr, err := b.join(match.KeyConditions, b.keyCondition)
	if err != nil {
		return nil, err
	}
	desc.KeyConditionExpression = keyExpr

	filterExpr, err := b.join(match.FilterConditions, b.filterCondition)
	if err != nil {
		return nil, err
	}
	desc.FilterExpression = filterExpr

	// Native ordering only exists along the chosen index's sort key.
	if ps.Order != nil && match.SortKey != "" && ps.Order.Column == match.SortKey {
		desc.ScanForward = aws.Bool(ps.Order.Direction != storagemodels.Descending)
	}

	desc.KeyAttributes = keyAttributeNames(schema, desc)
	projectWithKeys(b, desc, ps)
	desc.Names = b.namesOrNil()
	desc.Values = b.valuesOrNil()
	return desc, nil
}

func compileScan(schema storagemodels.TableSchema, ps storagemodels.PredicateSet) (*storagemodels.OperationDescriptor, error) {
	desc := newDescriptor(storagemodels.OpScan, schema, ps)

	b := newExprBuilder(schema)
	filterExpr, err := b.join(ps.Predicates, b.filterCondition)
	if err != nil {
		return nil, err
	}
	desc.FilterExpression = filterExpr

	desc.KeyAttributes = keyAttributeNames(schema, desc)
	projectWithKeys(b, desc, ps)
	desc.Names = b.namesOrNil()
	desc.Values = b.valuesOrNil()
	return desc, nil
}

// CompileInsert compiles a PutItem. The item must be non-empty and carry the primary key.
func CompileInsert(schema storagemodels.TableSchema, item map[string]any) (*storagemodels.OperationDescriptor, error) {
	if len(item) == 0 {
		return nil, errs.NewValidationError("item", "insert requires a non-empty item")
	}
	for _, k := range primaryKeyNames(schema) {
		if _, ok := item[k]; !ok {
			return nil, errs.NewValidationError(k, "insert item is missing a primary key attribute")
		}
	}

	av := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		var (
			converted types.AttributeValue
			err       error
		)
		if isPrimaryKey(schema, k) {
			converted, err = toKeyAttributeValue(v, schema.KeyType(k))
		} else {
			converted, err = toAttributeValue(v)
		}
		if err != nil {
			return nil, errs.NewValidationError(k, err.Error())
		}
		av[k] = converted
	}

	return &storagemodels.OperationDescriptor{
		Kind:      storagemodels.OpPutItem,
		TableName: schema.Name,
		Item:      av,
	}, nil
}

// CompileUpdate compiles an UpdateItem that SETs every non-key column of values
// on the item pinned by equality predicates over the primary key.
func CompileUpdate(schema storagemodels.TableSchema, predicates []storagemodels.Predicate, values map[string]any) (*storagemodels.OperationDescriptor, error) {
	key, err := identifyingKey(schema, predicates)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(values))
	for c := range values {
		if !isPrimaryKey(schema, c) {
			columns = append(columns, c)
		}
	}
	if len(columns) == 0 {
		return nil, errs.NewValidationError("values", "update has no non-key columns to set")
	}
	sort.Strings(columns)

	b := newExprBuilder(schema)
	assignments := make([]string, 0, len(columns))
	for _, c := range columns {
		av, err := toAttributeValue(values[c])
		if err != nil {
			return nil, errs.NewValidationError(c, err.Error())
		}
		assignments = append(assignments, fmt.Sprintf("%s = %s", b.name(c), b.value(av)))
	}

	return &storagemodels.OperationDescriptor{
		Kind:             storagemodels.OpUpdateItem,
		TableName:        schema.Name,
		Key:              key,
		UpdateExpression: "SET " + strings.Join(assignments, ", "),
		Names:            b.namesOrNil(),
		Values:           b.valuesOrNil(),
	}, nil
}

// CompileDelete compiles a DeleteItem for the item pinned by predicates.
func CompileDelete(schema storagemodels.TableSchema, predicates []storagemodels.Predicate) (*storagemodels.OperationDescriptor, error) {
	key, err := identifyingKey(schema, predicates)
	if err != nil {
		return nil, err
	}
	return &storagemodels.OperationDescriptor{
		Kind:      storagemodels.OpDeleteItem,
		TableName: schema.Name,
		Key:       key,
	}, nil
}

// identifyingKey extracts the full primary key from equality predicates.
// Writes are single-item, so any other predicate is rejected.
func identifyingKey(schema storagemodels.TableSchema, predicates []storagemodels.Predicate) (map[string]types.AttributeValue, error) {
	var keyPreds []storagemodels.Predicate
	for _, p := range predicates {
		if !isPrimaryKey(schema, p.Column) || p.Operator != storagemodels.OpEq || len(p.Values) != 1 {
			return nil, errs.NewQueryError("write predicates must be primary key equalities, got %s", p)
		}
		keyPreds = append(keyPreds, p)
	}
	for _, k := range primaryKeyNames(schema) {
		if findEquality(keyPreds, k) < 0 {
			return nil, errs.NewValidationError(k, "identifying key attribute is missing")
		}
	}
	return keyFromPredicates(schema, keyPreds)
}

func keyFromPredicates(schema storagemodels.TableSchema, predicates []storagemodels.Predicate) (map[string]types.AttributeValue, error) {
	key := make(map[string]types.AttributeValue, len(predicates))
	for _, p := range predicates {
		av, err := toKeyAttributeValue(p.Value(), schema.KeyType(p.Column))
		if err != nil {
			return nil, errs.NewValidationError(p.Column, err.Error())
		}
		key[p.Column] = av
	}
	return key, nil
}

func primaryKeyNames(schema storagemodels.TableSchema) []string {
	names := []string{schema.Key.PartitionKey.Name}
	if sk := schema.SortKeyName(); sk != "" {
		names = append(names, sk)
	}
	return names
}

// projectWithKeys renders the projection of ps. Key attributes the caller did
// not select are projected too, so a truncated read can still build its cursor,
// and recorded as hidden.
func projectWithKeys(b *exprBuilder, desc *storagemodels.OperationDescriptor, ps storagemodels.PredicateSet) {
	if ps.CountOnly || len(ps.Projection) == 0 {
		return
	}
	columns := append([]string(nil), ps.Projection...)
	for _, k := range desc.KeyAttributes {
		if !slices.Contains(ps.Projection, k) {
			columns = append(columns, k)
			desc.HiddenAttributes = append(desc.HiddenAttributes, k)
		}
	}
	desc.ProjectionExpression = b.projection(columns)
}

func isPrimaryKey(schema storagemodels.TableSchema, column string) bool {
	return column == schema.Key.PartitionKey.Name || (column != "" && column == schema.SortKeyName())
}

// keyAttributeNames lists the attributes forming a continuation key for desc:
// the table key plus the queried index's key.
func keyAttributeNames(schema storagemodels.TableSchema, desc *storagemodels.OperationDescriptor) []string {
	names := primaryKeyNames(schema)
	if desc.IndexName == "" {
		return names
	}
	for _, idx := range schema.Indexes {
		if idx.Name != desc.IndexName {
			continue
		}
		names = appendUnique(names, idx.PartitionKey.Name)
		if idx.SortKey != nil {
			names = appendUnique(names, idx.SortKey.Name)
		}
	}
	return names
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
