/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"

	"github.com/suparena/ddbquery/storagemodels"
)

// Table is an engine bound to one table name.
type Table struct {
	engine *Engine
	name   string
}

// Table returns a handle for name. It does not contact the store.
func (e *Engine) Table(name string) *Table {
	return &Table{engine: e, name: name}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Explain compiles ps without running it.
func (t *Table) Explain(ctx context.Context, ps storagemodels.PredicateSet) (*storagemodels.OperationDescriptor, error) {
	return t.engine.Compile(ctx, t.name, ps)
}

// Find returns the records matching ps.
func (t *Table) Find(ctx context.Context, ps storagemodels.PredicateSet) (*storagemodels.Result, error) {
	return t.engine.Execute(ctx, t.name, ps)
}

// First returns the first record matching ps, or nil when nothing matches.
func (t *Table) First(ctx context.Context, ps storagemodels.PredicateSet) (storagemodels.Record, error) {
	res, err := t.engine.Execute(ctx, t.name, ps.WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	return res.Records[0], nil
}

func (t *Table) Count(ctx context.Context, ps storagemodels.PredicateSet) (storagemodels.CountResult, error) {
	return t.engine.Count(ctx, t.name, ps)
}

func (t *Table) CountSegmented(ctx context.Context, ps storagemodels.PredicateSet, segments int) (storagemodels.CountResult, error) {
	return t.engine.CountSegmented(ctx, t.name, ps, segments)
}

func (t *Table) Insert(ctx context.Context, item map[string]any) error {
	return t.engine.Insert(ctx, t.name, item)
}

func (t *Table) Update(ctx context.Context, key []storagemodels.Predicate, values map[string]any) error {
	return t.engine.Update(ctx, t.name, key, values)
}

func (t *Table) Delete(ctx context.Context, key []storagemodels.Predicate) error {
	return t.engine.Delete(ctx, t.name, key)
}

// Stream delivers the records matching ps on a channel.
func (t *Table) Stream(ctx context.Context, ps storagemodels.PredicateSet, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	return t.engine.Stream(ctx, t.name, ps, opts...)
}
