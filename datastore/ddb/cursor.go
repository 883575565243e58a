/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// cursorValue is the JSON form of one scalar key attribute. Exactly one field is set.
type cursorValue struct {
	S    *string `json:"S,omitempty"`
	N    *string `json:"N,omitempty"`
	B    []byte  `json:"B,omitempty"`
	BOOL *bool   `json:"BOOL,omitempty"`
	NULL *bool   `json:"NULL,omitempty"`
}

var errEmptyCursor = errors.New("cursor is empty")

// EncodeCursor serializes a last-evaluated key as base64 of its JSON encoding.
// Map keys are emitted sorted, so equal keys always encode to equal cursors.
func EncodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	wire := make(map[string]cursorValue, len(key))
	for name, av := range key {
		var cv cursorValue
		switch tv := av.(type) {
		case *types.AttributeValueMemberS:
			cv.S = &tv.Value
		case *types.AttributeValueMemberN:
			cv.N = &tv.Value
		case *types.AttributeValueMemberB:
			cv.B = tv.Value
		case *types.AttributeValueMemberBOOL:
			cv.BOOL = &tv.Value
		case *types.AttributeValueMemberNULL:
			cv.NULL = &tv.Value
		default:
			return "", fmt.Errorf("cursor attribute %q is not a scalar (%T)", name, av)
		}
		wire[name] = cv
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeCursor parses a cursor produced by EncodeCursor.
func DecodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, errEmptyCursor
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("cursor is not base64: %w", err)
	}
	var wire map[string]cursorValue
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("cursor is not a JSON key: %w", err)
	}
	if len(wire) == 0 {
		return nil, errEmptyCursor
	}

	key := make(map[string]types.AttributeValue, len(wire))
	for name, cv := range wire {
		var (
			av  types.AttributeValue
			set int
		)
		if cv.S != nil {
			av, set = &types.AttributeValueMemberS{Value: *cv.S}, set+1
		}
		if cv.N != nil {
			av, set = &types.AttributeValueMemberN{Value: *cv.N}, set+1
		}
		if cv.B != nil {
			av, set = &types.AttributeValueMemberB{Value: cv.B}, set+1
		}
		if cv.BOOL != nil {
			av, set = &types.AttributeValueMemberBOOL{Value: *cv.BOOL}, set+1
		}
		if cv.NULL != nil {
			av, set = &types.AttributeValueMemberNULL{Value: *cv.NULL}, set+1
		}
		if set != 1 {
			return nil, fmt.Errorf("cursor attribute %q must carry exactly one typed value", name)
		}
		key[name] = av
	}
	return key, nil
}

// keyString renders a key for error and log context.
func keyString(key map[string]types.AttributeValue) string {
	if len(key) == 0 {
		return ""
	}
	s, err := EncodeCursor(key)
	if err != nil {
		return fmt.Sprintf("%v", key)
	}
	raw, _ := base64.StdEncoding.DecodeString(s)
	return string(raw)
}

// itemKey projects item onto the named key attributes.
func itemKey(item map[string]types.AttributeValue, names []string) map[string]types.AttributeValue {
	key := make(map[string]types.AttributeValue, len(names))
	for _, n := range names {
		if v, ok := item[n]; ok {
			key[n] = v
		}
	}
	return key
}
