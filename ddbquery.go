/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddbquery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/suparena/ddbquery/config"
	"github.com/suparena/ddbquery/datastore"
	"github.com/suparena/ddbquery/datastore/ddb"
	"github.com/suparena/ddbquery/registry"
	"go.uber.org/zap"
)

// DB is an engine plus the table handles opened through it. Safe for concurrent use.
type DB struct {
	engine *ddb.Engine
	logger *zap.Logger

	mu     sync.RWMutex
	tables map[string]*ddb.Table
}

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	schemas    *registry.Schemas
}

// Option configures Open and New.
type Option func(*options)

// WithLogger overrides the logger built from the configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer registers the engine metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithSchemas declares table schemas in addition to the configured ones.
func WithSchemas(schemas *registry.Schemas) Option {
	return func(o *options) {
		o.schemas = schemas
	}
}

// Open connects to DynamoDB as described by cfg.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*DB, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	client, err := ddb.NewDynamoDBClient(ctx, cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return New(client, cfg, opts...)
}

// New builds a DB over an existing client, e.g. a mock.
func New(client datastore.Client, cfg *config.Config, opts ...Option) (*DB, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = cfg.Logger(); err != nil {
			return nil, err
		}
	}

	schemas := o.schemas
	if schemas == nil {
		var err error
		if schemas, err = cfg.Registry(); err != nil {
			return nil, fmt.Errorf("failed to declare tables: %w", err)
		}
	} else {
		for _, t := range cfg.Tables {
			if err := schemas.Register(t); err != nil {
				return nil, fmt.Errorf("failed to declare tables: %w", err)
			}
		}
	}

	cache := ddb.NewMetadataCache(client, cfg.MetadataTTL,
		ddb.WithDeclaredSchemas(schemas),
		ddb.WithCacheLogger(logger))
	engineOpts := []ddb.Option{
		ddb.WithLogger(logger),
		ddb.WithSettings(cfg.Settings),
		ddb.WithMetadataCache(cache),
	}
	if o.registerer != nil {
		engineOpts = append(engineOpts, ddb.WithMetrics(ddb.NewMetrics(o.registerer)))
	}

	return &DB{
		engine: ddb.NewEngine(client, engineOpts...),
		logger: logger,
		tables: make(map[string]*ddb.Table),
	}, nil
}

// Engine returns the underlying engine.
func (db *DB) Engine() *ddb.Engine {
	return db.engine
}

// Table returns the handle for name, creating it on first use.
func (db *DB) Table(name string) *ddb.Table {
	db.mu.RLock()
	t, ok := db.tables[name]
	db.mu.RUnlock()
	if ok {
		return t
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if t, ok := db.tables[name]; ok {
		return t
	}
	t = db.engine.Table(name)
	db.tables[name] = t
	return t
}

// Tables returns the names of the tables opened so far, sorted.
func (db *DB) Tables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.tables))
	for n := range db.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close flushes the logger.
func (db *DB) Close() error {
	_ = db.logger.Sync()
	return nil
}
