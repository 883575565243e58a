/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"encoding/base64"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		"userId":  avS("u1"),
		"orderId": avS("o-7"),
		"age":     avN("42"),
		"blob":    &types.AttributeValueMemberB{Value: []byte{0, 1, 2}},
	}

	cursor, err := EncodeCursor(key)
	require.NoError(t, err)

	decoded, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	again, err := EncodeCursor(decoded)
	require.NoError(t, err)
	assert.Equal(t, cursor, again, "equal keys encode to equal cursors")
}

func TestCursorWireFormat(t *testing.T) {
	cursor, err := EncodeCursor(map[string]types.AttributeValue{"id": avS("u1")})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(cursor)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":{"S":"u1"}}`, string(raw))
}

func TestCursorEmptyKey(t *testing.T) {
	cursor, err := EncodeCursor(nil)
	require.NoError(t, err)
	assert.Empty(t, cursor)
}

func TestCursorRejectsNonScalars(t *testing.T) {
	_, err := EncodeCursor(map[string]types.AttributeValue{
		"tags": &types.AttributeValueMemberSS{Value: []string{"a"}},
	})
	assert.Error(t, err)
}

func TestDecodeCursorMalformed(t *testing.T) {
	enc := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	for name, cursor := range map[string]string{
		"empty":         "",
		"not base64":    "***",
		"not json":      enc("hello"),
		"empty object":  enc("{}"),
		"untyped value": enc(`{"id":{}}`),
		"two types":     enc(`{"id":{"S":"a","N":"1"}}`),
		"wrong shape":   enc(`["id"]`),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(cursor)
			assert.Error(t, err)
		})
	}
}
