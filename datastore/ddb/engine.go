/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbquery/datastore"
	errs "github.com/suparena/ddbquery/errors"
	"github.com/suparena/ddbquery/storagemodels"
	"go.uber.org/zap"
)

// Engine compiles predicate sets against table schemas and executes them.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	client   datastore.Client
	schemas  *MetadataCache
	settings Settings
	logger   *zap.Logger
	metrics  *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSettings overrides the heuristic thresholds.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithMetrics records round trips into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithMetadataCache injects the table-metadata cache.
func WithMetadataCache(c *MetadataCache) Option {
	return func(e *Engine) {
		e.schemas = c
	}
}

// NewEngine creates an engine over client.
func NewEngine(client datastore.Client, opts ...Option) *Engine {
	e := &Engine{
		client:   client,
		settings: DefaultSettings(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.settings = e.settings.normalized()
	if e.schemas == nil {
		e.schemas = NewMetadataCache(client, DefaultMetadataTTL, WithCacheLogger(e.logger))
	}
	return e
}

// Settings returns the effective thresholds.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Schema returns the current schema of table.
func (e *Engine) Schema(ctx context.Context, table string) (storagemodels.TableSchema, error) {
	return e.schemas.Schema(ctx, table)
}

// Compile validates ps, loads the table schema and compiles the cheapest operation.
// A malformed ps.Cursor is logged and ignored.
func (e *Engine) Compile(ctx context.Context, table string, ps storagemodels.PredicateSet) (*storagemodels.OperationDescriptor, error) {
	if err := ValidatePredicateSet(ps); err != nil {
		return nil, err
	}
	schema, err := e.schemas.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	desc, err := Compile(schema, ps)
	if err != nil {
		return nil, err
	}
	e.applyCursor(desc, ps.Cursor)
	e.logger.Debug("compiled request",
		zap.String("table", table),
		zap.String("operation", string(desc.Kind)),
		zap.String("access_path", accessPath(desc)),
		zap.Int("limit", desc.Limit))
	return desc, nil
}

func (e *Engine) applyCursor(desc *storagemodels.OperationDescriptor, cursor string) {
	if cursor == "" || (desc.Kind != storagemodels.OpQuery && desc.Kind != storagemodels.OpScan) {
		return
	}
	key, err := DecodeCursor(cursor)
	if err != nil {
		e.logger.Warn("ignoring malformed cursor",
			zap.String("table", desc.TableName),
			zap.Error(err))
		return
	}
	desc.ExclusiveStartKey = key
}

// Execute runs ps against table and returns records or a count.
func (e *Engine) Execute(ctx context.Context, table string, ps storagemodels.PredicateSet) (*storagemodels.Result, error) {
	desc, err := e.Compile(ctx, table, ps)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, desc)
}

// Run executes a compiled descriptor.
func (e *Engine) Run(ctx context.Context, desc *storagemodels.OperationDescriptor) (*storagemodels.Result, error) {
	switch desc.Kind {
	case storagemodels.OpGetItem:
		return e.getItem(ctx, desc)
	case storagemodels.OpBatchGetItem:
		return e.batchGetItem(ctx, desc)
	case storagemodels.OpQuery, storagemodels.OpScan:
		if desc.CountOnly {
			return e.countPages(ctx, desc)
		}
		return e.collect(ctx, desc)
	case storagemodels.OpPutItem:
		return e.putItem(ctx, desc)
	case storagemodels.OpUpdateItem:
		return e.updateItem(ctx, desc)
	case storagemodels.OpDeleteItem:
		return e.deleteItem(ctx, desc)
	}
	return nil, errs.NewQueryError("unknown operation kind %q", desc.Kind)
}

func (e *Engine) getItem(ctx context.Context, desc *storagemodels.OperationDescriptor) (*storagemodels.Result, error) {
	input := &sdk.GetItemInput{
		TableName:                &desc.TableName,
		Key:                      desc.Key,
		ExpressionAttributeNames: desc.Names,
	}
	if desc.ProjectionExpression != "" {
		input.ProjectionExpression = aws.String(desc.ProjectionExpression)
	}

	e.metrics.roundTrip("GetItem")
	out, err := e.client.GetItem(ctx, input)
	if err != nil {
		return nil, errs.Classify(err, desc.TableName, "GetItem", keyString(desc.Key))
	}
	if out.Item == nil {
		return &storagemodels.Result{}, nil
	}
	return newItemsResult([]map[string]types.AttributeValue{out.Item})
}

// batchGetItem fetches desc.Keys in chunks of at most Settings.BatchGetChunkSize.
// Unprocessed keys become a warning on the result; they are not retried.
func (e *Engine) batchGetItem(ctx context.Context, desc *storagemodels.OperationDescriptor) (*storagemodels.Result, error) {
	var (
		items       []map[string]types.AttributeValue
		unprocessed int
	)
	chunk := e.settings.BatchGetChunkSize
	for start := 0; start < len(desc.Keys); start += chunk {
		end := start + chunk
		if end > len(desc.Keys) {
			end = len(desc.Keys)
		}
		ka := types.KeysAndAttributes{
			Keys:                     desc.Keys[start:end],
			ExpressionAttributeNames: desc.Names,
		}
		if desc.ProjectionExpression != "" {
			ka.ProjectionExpression = aws.String(desc.ProjectionExpression)
		}

		e.metrics.roundTrip("BatchGetItem")
		out, err := e.client.BatchGetItem(ctx, &sdk.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{desc.TableName: ka},
		})
		if err != nil {
			return nil, errs.Classify(err, desc.TableName, "BatchGetItem", "")
		}
		items = append(items, out.Responses[desc.TableName]...)
		if left, ok := out.UnprocessedKeys[desc.TableName]; ok {
			unprocessed += len(left.Keys)
		}
	}

	if desc.Limit > 0 && len(items) > desc.Limit {
		items = items[:desc.Limit]
	}
	res, err := newItemsResult(items)
	if err != nil {
		return nil, err
	}
	if unprocessed > 0 {
		e.metrics.unprocessed(unprocessed)
		e.logger.Warn("batch get left keys unprocessed",
			zap.String("table", desc.TableName),
			zap.Int("requested", len(desc.Keys)),
			zap.Int("unprocessed", unprocessed))
		res.Warnings = append(res.Warnings, errs.NewBatchPartialError(desc.TableName, unprocessed))
	}
	return res, nil
}

// Insert stores item in table.
func (e *Engine) Insert(ctx context.Context, table string, item map[string]any) error {
	if len(item) == 0 {
		return errs.NewValidationError("item", "insert requires a non-empty item")
	}
	schema, err := e.schemas.Schema(ctx, table)
	if err != nil {
		return err
	}
	desc, err := CompileInsert(schema, item)
	if err != nil {
		return err
	}
	_, err = e.Run(ctx, desc)
	return err
}

// Update sets values on the item of table pinned by key equality predicates.
func (e *Engine) Update(ctx context.Context, table string, predicates []storagemodels.Predicate, values map[string]any) error {
	if len(predicates) == 0 {
		return errs.NewValidationError("key", "update requires an identifying key")
	}
	if len(values) == 0 {
		return errs.NewValidationError("values", "update has no columns to set")
	}
	schema, err := e.schemas.Schema(ctx, table)
	if err != nil {
		return err
	}
	desc, err := CompileUpdate(schema, predicates, values)
	if err != nil {
		return err
	}
	_, err = e.Run(ctx, desc)
	return err
}

// Delete removes the item of table pinned by key equality predicates.
func (e *Engine) Delete(ctx context.Context, table string, predicates []storagemodels.Predicate) error {
	if len(predicates) == 0 {
		return errs.NewValidationError("key", "delete requires an identifying key")
	}
	schema, err := e.schemas.Schema(ctx, table)
	if err != nil {
		return err
	}
	desc, err := CompileDelete(schema, predicates)
	if err != nil {
		return err
	}
	_, err = e.Run(ctx, desc)
	return err
}

func (e *Engine) putItem(ctx context.Context, desc *storagemodels.OperationDescriptor) (*storagemodels.Result, error) {
	e.metrics.roundTrip("PutItem")
	_, err := e.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &desc.TableName,
		Item:      desc.Item,
	})
	if err != nil {
		return nil, errs.Classify(err, desc.TableName, "PutItem", "")
	}
	return &storagemodels.Result{}, nil
}

func (e *Engine) updateItem(ctx context.Context, desc *storagemodels.OperationDescriptor) (*storagemodels.Result, error) {
	e.metrics.roundTrip("UpdateItem")
	_, err := e.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 &desc.TableName,
		Key:                       desc.Key,
		UpdateExpression:          aws.String(desc.UpdateExpression),
		ExpressionAttributeNames:  desc.Names,
		ExpressionAttributeValues: desc.Values,
	})
	if err != nil {
		return nil, errs.Classify(err, desc.TableName, "UpdateItem", keyString(desc.Key))
	}
	return &storagemodels.Result{}, nil
}

func (e *Engine) deleteItem(ctx context.Context, desc *storagemodels.OperationDescriptor) (*storagemodels.Result, error) {
	e.metrics.roundTrip("DeleteItem")
	_, err := e.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &desc.TableName,
		Key:       desc.Key,
	})
	if err != nil {
		return nil, errs.Classify(err, desc.TableName, "DeleteItem", keyString(desc.Key))
	}
	return &storagemodels.Result{}, nil
}

func accessPath(desc *storagemodels.OperationDescriptor) string {
	switch {
	case desc.Access != nil:
		return desc.Access.Index.String()
	case desc.Kind == storagemodels.OpBatchGetItem:
		return storagemodels.IndexRef{Kind: storagemodels.AccessPrimary}.String()
	}
	return fmt.Sprintf("scan:%s", desc.TableName)
}
