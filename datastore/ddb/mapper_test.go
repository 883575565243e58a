/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbquery/datastore/testmodels"
)

func TestMapItems(t *testing.T) {
	items := []map[string]types.AttributeValue{
		{"id": avS("u1"), "age": avN("31"), "tags": &types.AttributeValueMemberSS{Value: []string{"a", "b"}}},
		{"id": avS("u2"), "active": &types.AttributeValueMemberBOOL{Value: true}},
	}

	records, err := MapItems(items)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "u1", records[0]["id"])
	assert.Equal(t, float64(31), records[0]["age"])
	assert.Equal(t, []string{"a", "b"}, records[0]["tags"])
	assert.Equal(t, true, records[1]["active"])
}

func TestDecodeRecords(t *testing.T) {
	res, err := newItemsResult([]map[string]types.AttributeValue{
		{"id": avS("u1"), "email": avS("a@b.com"), "age": avN("31")},
		{"id": avS("u2"), "email": avS("c@d.com"), "status": avS("active")},
	})
	require.NoError(t, err)

	users, err := DecodeRecords[testmodels.User](res)
	require.NoError(t, err)
	assert.Equal(t, []testmodels.User{
		{ID: "u1", Email: "a@b.com", Age: 31},
		{ID: "u2", Email: "c@d.com", Status: "active"},
	}, users)
}

func TestNewCountResult(t *testing.T) {
	res := newCountResult(7, 20)
	require.NotNil(t, res.Count)
	assert.EqualValues(t, 7, *res.Count)
	assert.EqualValues(t, 20, res.ScannedCount)
	assert.Empty(t, res.Records)
}
