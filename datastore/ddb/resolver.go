/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"github.com/suparena/ddbquery/storagemodels"
)

// GSI match scores. Higher wins; ties go to the index declared first.
const (
	scoreUnbound       = 0
	scorePartitionOnly = 1 // partition bound, index sort key unbound
	scoreNoSortKey     = 2 // partition bound, index has no sort key
	scoreFullKey       = 3 // partition and sort key bound
)

// Resolver picks access paths for one table. It holds no per-call state and
// is safe for concurrent use.
type Resolver struct {
	schema storagemodels.TableSchema
}

// NewResolver creates a resolver bound to schema.
func NewResolver(schema storagemodels.TableSchema) *Resolver {
	return &Resolver{schema: schema}
}

// Schema returns the bound schema.
func (r *Resolver) Schema() storagemodels.TableSchema {
	return r.schema
}

// Resolve returns the best access path for ps, or false when only a scan can serve it.
func (r *Resolver) Resolve(ps storagemodels.PredicateSet) (*storagemodels.AccessPathMatch, bool) {
	return ResolveAccessPath(r.schema, ps.Predicates)
}

// BatchGetValues returns the partition-key values of a batch-get shaped request.
func (r *Resolver) BatchGetValues(ps storagemodels.PredicateSet) ([]any, bool) {
	return DetectBatchGet(r.schema, ps.Predicates)
}

// DetectBatchGet reports whether predicates are a single IN on the partition key
// of a table without a sort key. Each value then pins one full item key.
func DetectBatchGet(schema storagemodels.TableSchema, predicates []storagemodels.Predicate) ([]any, bool) {
	if len(predicates) != 1 || schema.Key.SortKey != nil {
		return nil, false
	}
	p := predicates[0]
	if p.Column != schema.Key.PartitionKey.Name || p.Operator != storagemodels.OpIn || len(p.Values) == 0 {
		return nil, false
	}
	return p.Values, true
}

// ResolveAccessPath chooses the cheapest index able to serve predicates:
// the primary key when its partition key is pinned by equality (or an LSI
// sharing it when only the LSI's sort key is bound), otherwise the best
// scoring GSI. It returns false when a full scan is required.
func ResolveAccessPath(schema storagemodels.TableSchema, predicates []storagemodels.Predicate) (*storagemodels.AccessPathMatch, bool) {
	pk := schema.Key.PartitionKey.Name
	if pkAt := findEquality(predicates, pk); pkAt >= 0 {
		sk := schema.SortKeyName()
		skAt := findSortCondition(predicates, sk, pkAt)
		if skAt < 0 {
			for _, idx := range schema.Indexes {
				if idx.Kind != storagemodels.IndexLocal || idx.SortKey == nil {
					continue
				}
				if at := findSortCondition(predicates, idx.SortKey.Name, pkAt); at >= 0 {
					ref := storagemodels.IndexRef{Kind: storagemodels.AccessLSI, Name: idx.Name}
					return buildMatch(ref, pk, idx.SortKey.Name, predicates, pkAt, at), true
				}
			}
		}
		ref := storagemodels.IndexRef{Kind: storagemodels.AccessPrimary}
		return buildMatch(ref, pk, sk, predicates, pkAt, skAt), true
	}

	var best *storagemodels.AccessPathMatch
	bestScore := scoreUnbound
	for _, idx := range schema.Indexes {
		if idx.Kind != storagemodels.IndexGlobal {
			continue
		}
		score, match := scoreGlobalIndex(idx, predicates)
		if score > bestScore {
			best, bestScore = match, score
		}
	}
	return best, best != nil
}

func scoreGlobalIndex(idx storagemodels.SecondaryIndex, predicates []storagemodels.Predicate) (int, *storagemodels.AccessPathMatch) {
	pkAt := findEquality(predicates, idx.PartitionKey.Name)
	if pkAt < 0 {
		return scoreUnbound, nil
	}
	ref := storagemodels.IndexRef{Kind: storagemodels.AccessGSI, Name: idx.Name}
	if idx.SortKey == nil {
		return scoreNoSortKey, buildMatch(ref, idx.PartitionKey.Name, "", predicates, pkAt, -1)
	}
	skAt := findSortCondition(predicates, idx.SortKey.Name, pkAt)
	score := scorePartitionOnly
	if skAt >= 0 {
		score = scoreFullKey
	}
	return score, buildMatch(ref, idx.PartitionKey.Name, idx.SortKey.Name, predicates, pkAt, skAt)
}

// findEquality returns the position of the first single-valued equality on column.
func findEquality(predicates []storagemodels.Predicate, column string) int {
	if column == "" {
		return -1
	}
	for i, p := range predicates {
		if p.Column == column && p.Operator == storagemodels.OpEq && len(p.Values) == 1 {
			return i
		}
	}
	return -1
}

// findSortCondition returns the first predicate on column usable as a sort-key condition.
func findSortCondition(predicates []storagemodels.Predicate, column string, skip int) int {
	if column == "" {
		return -1
	}
	for i, p := range predicates {
		if i == skip || p.Column != column || !p.Operator.SortKeyCapable() {
			continue
		}
		if wantValues(p.Operator) == len(p.Values) {
			return i
		}
	}
	return -1
}

// buildMatch splits predicates into key conditions (at pkAt and skAt) and filters.
func buildMatch(ref storagemodels.IndexRef, pk, sk string, predicates []storagemodels.Predicate, pkAt, skAt int) *storagemodels.AccessPathMatch {
	match := &storagemodels.AccessPathMatch{
		Index:        ref,
		PartitionKey: pk,
		SortKey:      sk,
	}
	match.KeyConditions = append(match.KeyConditions, predicates[pkAt])
	if skAt >= 0 {
		match.KeyConditions = append(match.KeyConditions, predicates[skAt])
	}
	for i, p := range predicates {
		if i == pkAt || i == skAt {
			continue
		}
		match.FilterConditions = append(match.FilterConditions, p)
	}
	return match
}

// wantValues is the value count an operator requires; -1 means one or more.
func wantValues(op storagemodels.Operator) int {
	switch op {
	case storagemodels.OpIsNull, storagemodels.OpNotNull:
		return 0
	case storagemodels.OpBetween:
		return 2
	case storagemodels.OpIn:
		return -1
	}
	return 1
}
