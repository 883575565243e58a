/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbquery/datastore/testmodels"
	errs "github.com/suparena/ddbquery/errors"
	sm "github.com/suparena/ddbquery/storagemodels"
)

func avS(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }
func avN(v string) types.AttributeValue { return &types.AttributeValueMemberN{Value: v} }

func TestCompileGetItem(t *testing.T) {
	desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.Eq("id", "u1")))
	require.NoError(t, err)

	assert.Equal(t, sm.OpGetItem, desc.Kind)
	assert.Equal(t, map[string]types.AttributeValue{"id": avS("u1")}, desc.Key)
	assert.Empty(t, desc.KeyConditionExpression)
	assert.Empty(t, desc.FilterExpression)
	assert.Nil(t, desc.Names)
	assert.Nil(t, desc.Values)
}

func TestCompileGetItemWithProjection(t *testing.T) {
	desc, err := Compile(testmodels.OrdersSchema(), sm.Where(sm.Eq("userId", "u1"), sm.Eq("orderId", "o1")).Select("total"))
	require.NoError(t, err)

	assert.Equal(t, sm.OpGetItem, desc.Kind)
	assert.Equal(t, "#a1", desc.ProjectionExpression)
	assert.Equal(t, map[string]string{"#a1": "total"}, desc.Names)
}

func TestCompileQueryOnGlobalIndex(t *testing.T) {
	desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.Eq("email", "a@b.com")))
	require.NoError(t, err)

	assert.Equal(t, sm.OpQuery, desc.Kind)
	assert.Equal(t, "email-index", desc.IndexName)
	assert.Equal(t, "#a1 = :v1", desc.KeyConditionExpression)
	assert.Empty(t, desc.FilterExpression)
	assert.Equal(t, map[string]string{"#a1": "email"}, desc.Names)
	assert.Equal(t, map[string]types.AttributeValue{":v1": avS("a@b.com")}, desc.Values)
	assert.Equal(t, []string{"id", "email"}, desc.KeyAttributes)
}

func TestCompileQueryWithFilter(t *testing.T) {
	ps := sm.Where(sm.Eq("status", "active"), sm.Gt("age", 30), sm.Eq("name", "Al")).
		OrderedBy("age", sm.Descending).
		WithLimit(10)
	desc, err := Compile(testmodels.UsersSchema(), ps)
	require.NoError(t, err)

	assert.Equal(t, sm.OpQuery, desc.Kind)
	assert.Equal(t, "status-age-index", desc.IndexName)
	assert.Equal(t, "#a1 = :v1 AND #a2 > :v2", desc.KeyConditionExpression)
	assert.Equal(t, "#a3 = :v3", desc.FilterExpression)
	assert.Equal(t, avN("30"), desc.Values[":v2"], "sort key values take the declared key type")
	require.NotNil(t, desc.ScanForward)
	assert.False(t, *desc.ScanForward)
	assert.Equal(t, 10, desc.Limit)
}

func TestCompileOrderOutsideSortKey(t *testing.T) {
	desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.Eq("status", "active")).OrderedBy("name", sm.Ascending))
	require.NoError(t, err)
	assert.Nil(t, desc.ScanForward)
}

func TestCompileFilterOperators(t *testing.T) {
	tests := []struct {
		name   string
		pred   sm.Predicate
		expr   string
		values map[string]types.AttributeValue
	}{
		{"like contains", sm.Like("name", "%li%"), "contains(#a1, :v1)", map[string]types.AttributeValue{":v1": avS("li")}},
		{"like prefix", sm.Like("name", "li%"), "contains(#a1, :v1)", map[string]types.AttributeValue{":v1": avS("li")}},
		{"like suffix", sm.Like("name", "%li"), "contains(#a1, :v1)", map[string]types.AttributeValue{":v1": avS("li")}},
		{"is null", sm.IsNull("name"), "attribute_not_exists(#a1)", nil},
		{"not null", sm.NotNull("name"), "attribute_exists(#a1)", nil},
		{"in", sm.In("name", "a", "b"), "#a1 IN (:v1, :v2)", map[string]types.AttributeValue{":v1": avS("a"), ":v2": avS("b")}},
		{"between", sm.Between("age", 1, 9), "#a1 BETWEEN :v1 AND :v2", map[string]types.AttributeValue{":v1": avN("1"), ":v2": avN("9")}},
		{"begins with", sm.BeginsWith("name", "Al"), "begins_with(#a1, :v1)", map[string]types.AttributeValue{":v1": avS("Al")}},
		{"less or equal", sm.Lte("age", 3), "#a1 <= :v1", map[string]types.AttributeValue{":v1": avN("3")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := Compile(testmodels.UsersSchema(), sm.Where(tt.pred))
			require.NoError(t, err)
			assert.Equal(t, sm.OpScan, desc.Kind)
			assert.Equal(t, tt.expr, desc.FilterExpression)
			assert.Equal(t, map[string]string{"#a1": tt.pred.Column}, desc.Names)
			assert.Equal(t, tt.values, desc.Values)
		})
	}
}

func TestCompilePlaceholdersNeverCollide(t *testing.T) {
	ps := sm.Where(
		sm.Eq("status", "active"),
		sm.Between("age", 20, 40),
		sm.In("name", "a", "b", "c"),
		sm.Like("email", "%.com"),
		sm.NotNull("createdAt"),
	).Select("id", "email")
	desc, err := Compile(testmodels.UsersSchema(), ps)
	require.NoError(t, err)

	placeholder := regexp.MustCompile(`[#:][av]\d+`)
	seen := map[string]int{}
	for _, expr := range []string{desc.KeyConditionExpression, desc.FilterExpression, desc.ProjectionExpression} {
		for _, p := range placeholder.FindAllString(expr, -1) {
			seen[p]++
		}
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "placeholder %s used more than once", p)
		if p[0] == '#' {
			assert.Contains(t, desc.Names, p)
		} else {
			assert.Contains(t, desc.Values, p)
		}
	}
	// status and age are index keys left out of the selection.
	assert.Len(t, desc.Names, len(ps.Predicates)+len(ps.Projection)+2)
	assert.Len(t, desc.Values, 1+2+3+1)
	assert.Equal(t, "#a6, #a7, #a8, #a9", desc.ProjectionExpression)
}

func TestCompileProjectionCarriesKeys(t *testing.T) {
	t.Run("scan", func(t *testing.T) {
		desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.Gt("age", 1)).Select("email"))
		require.NoError(t, err)
		assert.Equal(t, "#a2, #a3", desc.ProjectionExpression)
		assert.Equal(t, "id", desc.Names["#a3"])
		assert.Equal(t, []string{"id"}, desc.HiddenAttributes)
	})

	t.Run("index query", func(t *testing.T) {
		desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.Eq("email", "a@b.com")).Select("id", "name"))
		require.NoError(t, err)
		assert.Equal(t, "email-index", desc.IndexName)
		assert.Equal(t, []string{"email"}, desc.HiddenAttributes)
		assert.Equal(t, "#a2, #a3, #a4", desc.ProjectionExpression)
	})

	t.Run("selected keys are not hidden", func(t *testing.T) {
		desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.Gt("age", 1)).Select("id", "age"))
		require.NoError(t, err)
		assert.Equal(t, "#a2, #a3", desc.ProjectionExpression)
		assert.Empty(t, desc.HiddenAttributes)
	})

	t.Run("no projection", func(t *testing.T) {
		desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.Gt("age", 1)))
		require.NoError(t, err)
		assert.Empty(t, desc.ProjectionExpression)
		assert.Empty(t, desc.HiddenAttributes)
	})
}

func TestValidateLimitBounds(t *testing.T) {
	require.NoError(t, ValidatePredicateSet(sm.Where().WithLimit(math.MaxInt32)))

	err := ValidatePredicateSet(sm.Where().WithLimit(math.MaxInt32 + 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestCompileCountOnly(t *testing.T) {
	desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.Eq("id", "u1")).Select("email").Counting())
	require.NoError(t, err)

	assert.Equal(t, sm.OpQuery, desc.Kind, "count-only never compiles to GetItem")
	assert.True(t, desc.CountOnly)
	assert.Empty(t, desc.ProjectionExpression)

	desc, err = Compile(testmodels.UsersSchema(), sm.Where(sm.In("id", "u1", "u2")).Counting())
	require.NoError(t, err)
	assert.Equal(t, sm.OpScan, desc.Kind)
}

func TestCompileBatchGet(t *testing.T) {
	desc, err := Compile(testmodels.UsersSchema(), sm.Where(sm.In("id", "u1", "u2", "u1")).Select("email"))
	require.NoError(t, err)

	assert.Equal(t, sm.OpBatchGetItem, desc.Kind)
	assert.Equal(t, []map[string]types.AttributeValue{{"id": avS("u1")}, {"id": avS("u2")}}, desc.Keys)
	assert.Equal(t, "#a1", desc.ProjectionExpression)
}

func TestCompileScan(t *testing.T) {
	desc, err := CompileScan(testmodels.UsersSchema(), sm.Where(sm.Eq("id", "u1")))
	require.NoError(t, err)
	assert.Equal(t, sm.OpScan, desc.Kind)
	assert.Equal(t, "#a1 = :v1", desc.FilterExpression)
	assert.Equal(t, []string{"id"}, desc.KeyAttributes)
}

func TestCompileTimeValues(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	desc, err := Compile(testmodels.OrdersSchema(), sm.Where(sm.Eq("userId", "u1"), sm.Since("createdAt", ts)))
	require.NoError(t, err)

	assert.Equal(t, "created-index", desc.IndexName)
	assert.Equal(t, "#a1 = :v1 AND #a2 >= :v2", desc.KeyConditionExpression)
	assert.Equal(t, avS(strfmt.DateTime(ts).String()), desc.Values[":v2"])
}

func TestCompileRejections(t *testing.T) {
	users := testmodels.UsersSchema()

	tests := []struct {
		name  string
		ps    sm.PredicateSet
		query bool
	}{
		{"raw text", sm.PredicateSet{Raw: "SELECT * FROM users"}, true},
		{"unknown operator", sm.Where(sm.Predicate{Column: "id", Operator: "~", Values: []any{"x"}}), true},
		{"empty in", sm.Where(sm.In("id")), false},
		{"between with one value", sm.Where(sm.Predicate{Column: "age", Operator: sm.OpBetween, Values: []any{1}}), false},
		{"negative limit", sm.Where().WithLimit(-1), false},
		{"empty column", sm.Where(sm.Eq("", 1)), false},
		{"bad direction", sm.Where().OrderedBy("age", "sideways"), false},
		{"like needs a string", sm.Where(sm.Predicate{Column: "name", Operator: sm.OpLike, Values: []any{5}}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(users, tt.ps)
			require.Error(t, err)
			if tt.query {
				assert.True(t, errs.IsQueryError(err), "got %v", err)
			} else {
				assert.True(t, errs.IsValidationError(err), "got %v", err)
			}
		})
	}
}

func TestCompileInsert(t *testing.T) {
	users := testmodels.UsersSchema()

	_, err := CompileInsert(users, nil)
	assert.True(t, errs.IsValidationError(err))

	_, err = CompileInsert(users, map[string]any{"email": "a@b.com"})
	assert.True(t, errs.IsValidationError(err))

	desc, err := CompileInsert(users, map[string]any{"id": 7, "email": "a@b.com", "age": 3})
	require.NoError(t, err)
	assert.Equal(t, sm.OpPutItem, desc.Kind)
	assert.Equal(t, avS("7"), desc.Item["id"], "key values take the declared key type")
	assert.Equal(t, avN("3"), desc.Item["age"])
}

func TestCompileUpdate(t *testing.T) {
	orders := testmodels.OrdersSchema()
	key := []sm.Predicate{sm.Eq("userId", "u1"), sm.Eq("orderId", "o1")}

	desc, err := CompileUpdate(orders, key, map[string]any{"total": 12.5, "status": "paid", "orderId": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, sm.OpUpdateItem, desc.Kind)
	assert.Equal(t, "SET #a1 = :v1, #a2 = :v2", desc.UpdateExpression)
	assert.Equal(t, map[string]string{"#a1": "status", "#a2": "total"}, desc.Names)
	assert.Equal(t, map[string]types.AttributeValue{"userId": avS("u1"), "orderId": avS("o1")}, desc.Key)

	_, err = CompileUpdate(orders, key[:1], map[string]any{"total": 1})
	assert.True(t, errs.IsValidationError(err), "missing sort key")

	_, err = CompileUpdate(orders, append(key, sm.Gt("total", 3)), map[string]any{"total": 1})
	assert.True(t, errs.IsQueryError(err), "non-key predicate")

	_, err = CompileUpdate(orders, key, map[string]any{"userId": "u2"})
	assert.True(t, errs.IsValidationError(err), "nothing to set")
}

func TestCompileDelete(t *testing.T) {
	desc, err := CompileDelete(testmodels.UsersSchema(), []sm.Predicate{sm.Eq("id", "u1")})
	require.NoError(t, err)
	assert.Equal(t, sm.OpDeleteItem, desc.Kind)
	assert.Equal(t, map[string]types.AttributeValue{"id": avS("u1")}, desc.Key)

	_, err = CompileDelete(testmodels.UsersSchema(), nil)
	assert.True(t, errs.IsValidationError(err))
}
