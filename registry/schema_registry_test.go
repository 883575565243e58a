/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbquery/datastore/testmodels"
	"github.com/suparena/ddbquery/storagemodels"
)

func TestSchemasRegisterAndGet(t *testing.T) {
	r := NewSchemas()
	require.NoError(t, r.Register(testmodels.UsersSchema()))
	require.NoError(t, r.Register(testmodels.OrdersSchema()))

	s, ok := r.Get("orders")
	require.True(t, ok)
	assert.Equal(t, "orderId", s.SortKeyName())
	assert.Equal(t, []string{"orders", "users"}, r.Names())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Error(t, r.Register(testmodels.UsersSchema()), "duplicate table")
}

func TestNilSchemasGet(t *testing.T) {
	var r *Schemas
	_, ok := r.Get("users")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	base := func() storagemodels.TableSchema { return testmodels.OrdersSchema() }

	tests := []struct {
		name   string
		mutate func(*storagemodels.TableSchema)
	}{
		{"no name", func(s *storagemodels.TableSchema) { s.Name = "" }},
		{"no partition key", func(s *storagemodels.TableSchema) { s.Key.PartitionKey.Name = "" }},
		{"bad key type", func(s *storagemodels.TableSchema) { s.Key.PartitionKey.Type = "SS" }},
		{"bad sort key type", func(s *storagemodels.TableSchema) { s.Key.SortKey.Type = "BOOL" }},
		{"unnamed index", func(s *storagemodels.TableSchema) { s.Indexes[0].Name = "" }},
		{"duplicate index", func(s *storagemodels.TableSchema) { s.Indexes[1].Name = s.Indexes[0].Name }},
		{"unknown kind", func(s *storagemodels.TableSchema) { s.Indexes[1].Kind = "regional" }},
		{"gsi without partition key", func(s *storagemodels.TableSchema) { s.Indexes[1].PartitionKey.Name = "" }},
		{"lsi without sort key", func(s *storagemodels.TableSchema) { s.Indexes[0].SortKey = nil }},
		{"lsi with foreign partition key", func(s *storagemodels.TableSchema) { s.Indexes[0].PartitionKey.Name = "status" }},
	}

	require.NoError(t, Validate(base()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			assert.Error(t, Validate(s))
			assert.Error(t, NewSchemas().Register(s))
		})
	}
}
