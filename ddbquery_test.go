/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddbquery_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbquery"
	"github.com/suparena/ddbquery/config"
	"github.com/suparena/ddbquery/datastore/mock"
	"github.com/suparena/ddbquery/datastore/testmodels"
	"github.com/suparena/ddbquery/registry"
	sm "github.com/suparena/ddbquery/storagemodels"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) (*ddbquery.DB, *mock.Client) {
	t.Helper()
	client := mock.New().WithTable(testmodels.UsersSchema()).WithTable(testmodels.OrdersSchema())

	cfg := config.Default()
	cfg.Tables = []sm.TableSchema{testmodels.UsersSchema()}

	db, err := ddbquery.New(client, cfg,
		ddbquery.WithLogger(zap.NewNop()),
		ddbquery.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, client
}

func TestTableHandles(t *testing.T) {
	db, _ := newTestDB(t)

	users := db.Table("users")
	assert.Same(t, users, db.Table("users"))
	assert.Equal(t, "users", users.Name())

	db.Table("orders")
	assert.Equal(t, []string{"orders", "users"}, db.Tables())
}

func TestDeclaredAndDescribedTables(t *testing.T) {
	ctx := context.Background()
	db, client := newTestDB(t)

	_, err := db.Engine().Schema(ctx, "users")
	require.NoError(t, err)
	assert.Zero(t, client.CallCount("DescribeTable"))

	orders, err := db.Engine().Schema(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "orderId", orders.SortKeyName())
	assert.Equal(t, 1, client.CallCount("DescribeTable"))
}

func TestTypedTable(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)
	users := ddbquery.Typed[testmodels.User](db, "users")

	for _, u := range []testmodels.User{
		{ID: "u1", Email: "a@b.com", Status: "active", Age: 31},
		{ID: "u2", Email: "c@d.com", Status: "active", Age: 25},
		{ID: "u3", Email: "e@f.com", Status: "inactive", Age: 40},
	} {
		require.NoError(t, users.Put(ctx, u))
	}

	found, cursor, err := users.Find(ctx, sm.Where(sm.Eq("status", "active")).Oldest("age"))
	require.NoError(t, err)
	assert.Empty(t, cursor)
	require.Len(t, found, 2)
	assert.Equal(t, "u2", found[0].ID)
	assert.Equal(t, "u1", found[1].ID)

	first, err := users.First(ctx, sm.Where(sm.Eq("email", "e@f.com")))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 40, first.Age)

	none, err := users.First(ctx, sm.Where(sm.Eq("email", "nobody@x.com")))
	require.NoError(t, err)
	assert.Nil(t, none)

	n, err := users.Count(ctx, sm.Where(sm.Gte("age", 30)))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestNewRejectsDuplicateDeclarations(t *testing.T) {
	reg := registry.NewSchemas()
	require.NoError(t, reg.Register(testmodels.UsersSchema()))

	cfg := config.Default()
	cfg.Tables = []sm.TableSchema{testmodels.UsersSchema()}

	_, err := ddbquery.New(mock.New(), cfg, ddbquery.WithSchemas(reg), ddbquery.WithLogger(zap.NewNop()))
	assert.Error(t, err)
}

func TestVersionInfo(t *testing.T) {
	info := ddbquery.GetVersionInfo()
	assert.Equal(t, ddbquery.Version, info.Version)
	assert.Equal(t, "github.com/suparena/ddbquery", info.Module)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.BuildDate)
	assert.NotEmpty(t, info.DynamoDBVersion)
}
