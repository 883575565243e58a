/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sync"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbquery/datastore"
	errs "github.com/suparena/ddbquery/errors"
	"github.com/suparena/ddbquery/registry"
	"github.com/suparena/ddbquery/storagemodels"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	schema  storagemodels.TableSchema
	fetched time.Time
}

// MetadataCache caches described table schemas for a bounded time. A failed
// refresh falls back to the stale entry. Safe for concurrent use.
type MetadataCache struct {
	client   datastore.Client
	ttl      time.Duration
	declared *registry.Schemas
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	// refreshes collapses concurrent describes of one table.
	refreshes singleflight.Group
}

// CacheOption configures a MetadataCache.
type CacheOption func(*MetadataCache)

// WithDeclaredSchemas serves tables found in schemas without describing them.
func WithDeclaredSchemas(schemas *registry.Schemas) CacheOption {
	return func(c *MetadataCache) {
		c.declared = schemas
	}
}

// WithCacheLogger sets the cache logger.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *MetadataCache) {
		c.logger = logger
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *MetadataCache) {
		c.now = now
	}
}

// NewMetadataCache creates a cache describing tables through client. A ttl of 0 uses DefaultMetadataTTL.
func NewMetadataCache(client datastore.Client, ttl time.Duration, opts ...CacheOption) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	c := &MetadataCache{
		client:  client,
		ttl:     ttl,
		logger:  zap.NewNop(),
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schema returns the schema of table, describing it when the cached copy is missing or stale.
func (c *MetadataCache) Schema(ctx context.Context, table string) (storagemodels.TableSchema, error) {
	if s, ok := c.declared.Get(table); ok {
		return s, nil
	}

	c.mu.RLock()
	entry, cached := c.entries[table]
	c.mu.RUnlock()

	if cached && c.now().Sub(entry.fetched) < c.ttl {
		return entry.schema, nil
	}

	v, err, shared := c.refreshes.Do(table, func() (any, error) {
		return c.refresh(ctx, table, entry, cached)
	})
	if err != nil {
		return storagemodels.TableSchema{}, err
	}
	if shared {
		c.logger.Debug("joined in-flight table describe", zap.String("table", table))
	}
	return v.(storagemodels.TableSchema), nil
}

// refresh describes table and caches the result, falling back to the stale entry on failure.
func (c *MetadataCache) refresh(ctx context.Context, table string, entry cacheEntry, cached bool) (storagemodels.TableSchema, error) {
	out, err := c.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: &table})
	if err != nil {
		classified := errs.Classify(err, table, "DescribeTable", "")
		if errs.IsSchemaNotFound(classified) {
			c.Invalidate(table)
			return storagemodels.TableSchema{}, classified
		}
		if cached {
			c.logger.Warn("table describe failed, serving stale schema",
				zap.String("table", table),
				zap.Duration("age", c.now().Sub(entry.fetched)),
				zap.Error(classified))
			return entry.schema, nil
		}
		return storagemodels.TableSchema{}, classified
	}
	if out.Table == nil {
		return storagemodels.TableSchema{}, errs.NewSchemaNotFoundError(table, nil)
	}

	schema := SchemaFromDescription(out.Table)
	if schema.Name == "" {
		schema.Name = table
	}

	c.mu.Lock()
	c.entries[table] = cacheEntry{schema: schema, fetched: c.now()}
	c.mu.Unlock()

	c.logger.Debug("table schema refreshed",
		zap.String("table", table),
		zap.Int("indexes", len(schema.Indexes)))
	return schema, nil
}

// Invalidate drops the cached schema of table.
func (c *MetadataCache) Invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, table)
}

// SchemaFromDescription converts a DescribeTable result into a TableSchema.
// GSIs are listed before LSIs, each in the order the store reports them.
func SchemaFromDescription(td *types.TableDescription) storagemodels.TableSchema {
	attrTypes := make(map[string]string, len(td.AttributeDefinitions))
	for _, def := range td.AttributeDefinitions {
		if def.AttributeName != nil {
			attrTypes[*def.AttributeName] = string(def.AttributeType)
		}
	}

	schema := storagemodels.TableSchema{}
	if td.TableName != nil {
		schema.Name = *td.TableName
	}
	pk, sk := keyAttributes(td.KeySchema, attrTypes)
	schema.Key = storagemodels.TableKeySchema{PartitionKey: pk, SortKey: sk}

	for _, gsi := range td.GlobalSecondaryIndexes {
		pk, sk := keyAttributes(gsi.KeySchema, attrTypes)
		schema.Indexes = append(schema.Indexes, storagemodels.SecondaryIndex{
			Name:         derefString(gsi.IndexName),
			Kind:         storagemodels.IndexGlobal,
			PartitionKey: pk,
			SortKey:      sk,
			Projection:   projectionType(gsi.Projection),
		})
	}
	for _, lsi := range td.LocalSecondaryIndexes {
		pk, sk := keyAttributes(lsi.KeySchema, attrTypes)
		schema.Indexes = append(schema.Indexes, storagemodels.SecondaryIndex{
			Name:         derefString(lsi.IndexName),
			Kind:         storagemodels.IndexLocal,
			PartitionKey: pk,
			SortKey:      sk,
			Projection:   projectionType(lsi.Projection),
		})
	}
	return schema
}

func keyAttributes(elems []types.KeySchemaElement, attrTypes map[string]string) (storagemodels.KeyAttribute, *storagemodels.KeyAttribute) {
	var (
		pk storagemodels.KeyAttribute
		sk *storagemodels.KeyAttribute
	)
	for _, e := range elems {
		name := derefString(e.AttributeName)
		attr := storagemodels.KeyAttribute{Name: name, Type: attrTypes[name]}
		switch e.KeyType {
		case types.KeyTypeHash:
			pk = attr
		case types.KeyTypeRange:
			sk = &attr
		}
	}
	return pk, sk
}

func projectionType(p *types.Projection) string {
	if p == nil {
		return ""
	}
	return string(p.ProjectionType)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
