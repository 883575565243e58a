/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/ddbquery/storagemodels"
)

// Schemas is a registry of declared table schemas, keyed by table name.
// Declared schemas are authoritative: the metadata cache never describes them.
type Schemas struct {
	mu      sync.RWMutex
	schemas map[string]storagemodels.TableSchema
}

// NewSchemas creates an empty registry.
func NewSchemas() *Schemas {
	return &Schemas{
		schemas: make(map[string]storagemodels.TableSchema),
	}
}

// Register declares a table schema. Registering the same table twice is an error.
func (r *Schemas) Register(schema storagemodels.TableSchema) error {
	if err := Validate(schema); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Name]; exists {
		return fmt.Errorf("schema for table %q already registered", schema.Name)
	}
	r.schemas[schema.Name] = schema
	return nil
}

// Get retrieves the declared schema of table, if any.
func (r *Schemas) Get(table string) (storagemodels.TableSchema, bool) {
	if r == nil {
		return storagemodels.TableSchema{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[table]
	return s, ok
}

// Names returns the declared table names in sorted order.
func (r *Schemas) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks that a schema is usable by the resolver.
func Validate(schema storagemodels.TableSchema) error {
	if schema.Name == "" {
		return fmt.Errorf("schema has no table name")
	}
	if schema.Key.PartitionKey.Name == "" {
		return fmt.Errorf("schema %q has no partition key", schema.Name)
	}
	if err := validateType(schema.Name, schema.Key.PartitionKey); err != nil {
		return err
	}
	if schema.Key.SortKey != nil {
		if err := validateType(schema.Name, *schema.Key.SortKey); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(schema.Indexes))
	for _, idx := range schema.Indexes {
		if idx.Name == "" {
			return fmt.Errorf("schema %q declares an unnamed index", schema.Name)
		}
		if seen[idx.Name] {
			return fmt.Errorf("schema %q declares index %q twice", schema.Name, idx.Name)
		}
		seen[idx.Name] = true

		switch idx.Kind {
		case storagemodels.IndexGlobal:
			if idx.PartitionKey.Name == "" {
				return fmt.Errorf("index %q of %q has no partition key", idx.Name, schema.Name)
			}
		case storagemodels.IndexLocal:
			if idx.SortKey == nil {
				return fmt.Errorf("local index %q of %q has no sort key", idx.Name, schema.Name)
			}
			if idx.PartitionKey.Name != "" && idx.PartitionKey.Name != schema.Key.PartitionKey.Name {
				return fmt.Errorf("local index %q of %q must share the table partition key", idx.Name, schema.Name)
			}
		default:
			return fmt.Errorf("index %q of %q has unknown kind %q", idx.Name, schema.Name, idx.Kind)
		}
	}
	return nil
}

func validateType(table string, attr storagemodels.KeyAttribute) error {
	switch attr.Type {
	case "", "S", "N", "B":
		return nil
	}
	return fmt.Errorf("key %q of %q has invalid type %q", attr.Name, table, attr.Type)
}
