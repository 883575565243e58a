/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	errs "github.com/suparena/ddbquery/errors"
	"github.com/suparena/ddbquery/storagemodels"
)

// exprBuilder allocates "#aN" / ":vN" placeholders for one descriptor. Both
// counters only grow, so expressions rendered later never reuse a placeholder
// of an earlier one.
type exprBuilder struct {
	schema storagemodels.TableSchema
	names  map[string]string
	values map[string]types.AttributeValue
	nameN  int
	valueN int
}

func newExprBuilder(schema storagemodels.TableSchema) *exprBuilder {
	return &exprBuilder{
		schema: schema,
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
}

func (b *exprBuilder) name(column string) string {
	b.nameN++
	placeholder := fmt.Sprintf("#a%d", b.nameN)
	b.names[placeholder] = column
	return placeholder
}

func (b *exprBuilder) value(av types.AttributeValue) string {
	b.valueN++
	placeholder := fmt.Sprintf(":v%d", b.valueN)
	b.values[placeholder] = av
	return placeholder
}

// keyCondition renders a key predicate with values coerced to the key's declared type.
func (b *exprBuilder) keyCondition(p storagemodels.Predicate) (string, error) {
	keyType := b.schema.KeyType(p.Column)
	vals := make([]string, len(p.Values))
	for i, v := range p.Values {
		av, err := toKeyAttributeValue(v, keyType)
		if err != nil {
			return "", errs.NewValidationError(p.Column, err.Error())
		}
		vals[i] = b.value(av)
	}
	attr := b.name(p.Column)

	switch p.Operator {
	case storagemodels.OpEq, storagemodels.OpLt, storagemodels.OpLte, storagemodels.OpGt, storagemodels.OpGte:
		return fmt.Sprintf("%s %s %s", attr, p.Operator, vals[0]), nil
	case storagemodels.OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", attr, vals[0], vals[1]), nil
	case storagemodels.OpBeginsWith:
		return fmt.Sprintf("begins_with(%s, %s)", attr, vals[0]), nil
	}
	return "", errs.NewQueryError("operator %q cannot be a key condition", p.Operator)
}

// filterCondition renders a predicate evaluated after the key-matched fetch.
func (b *exprBuilder) filterCondition(p storagemodels.Predicate) (string, error) {
	attr := b.name(p.Column)

	switch p.Operator {
	case storagemodels.OpIsNull:
		return fmt.Sprintf("attribute_not_exists(%s)", attr), nil
	case storagemodels.OpNotNull:
		return fmt.Sprintf("attribute_exists(%s)", attr), nil
	case storagemodels.OpLike:
		// No native prefix/suffix test outside key conditions: every LIKE becomes contains().
		pattern, ok := p.Value().(string)
		if !ok {
			return "", errs.NewValidationError(p.Column, "like pattern must be a string")
		}
		v := b.value(&types.AttributeValueMemberS{Value: strings.Trim(pattern, "%")})
		return fmt.Sprintf("contains(%s, %s)", attr, v), nil
	}

	vals := make([]string, len(p.Values))
	for i, v := range p.Values {
		av, err := toAttributeValue(v)
		if err != nil {
			return "", errs.NewValidationError(p.Column, err.Error())
		}
		vals[i] = b.value(av)
	}

	switch p.Operator {
	case storagemodels.OpEq, storagemodels.OpLt, storagemodels.OpLte, storagemodels.OpGt, storagemodels.OpGte:
		return fmt.Sprintf("%s %s %s", attr, p.Operator, vals[0]), nil
	case storagemodels.OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", attr, vals[0], vals[1]), nil
	case storagemodels.OpBeginsWith:
		return fmt.Sprintf("begins_with(%s, %s)", attr, vals[0]), nil
	case storagemodels.OpIn:
		return fmt.Sprintf("%s IN (%s)", attr, strings.Join(vals, ", ")), nil
	}
	return "", errs.NewQueryError("unsupported operator %q", p.Operator)
}

func (b *exprBuilder) join(predicates []storagemodels.Predicate, render func(storagemodels.Predicate) (string, error)) (string, error) {
	clauses := make([]string, 0, len(predicates))
	for _, p := range predicates {
		clause, err := render(p)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), nil
}

func (b *exprBuilder) projection(columns []string) string {
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		placeholders[i] = b.name(c)
	}
	return strings.Join(placeholders, ", ")
}

// namesOrNil and valuesOrNil return nil for empty maps; the store rejects empty expression maps.
func (b *exprBuilder) namesOrNil() map[string]string {
	if len(b.names) == 0 {
		return nil
	}
	return b.names
}

func (b *exprBuilder) valuesOrNil() map[string]types.AttributeValue {
	if len(b.values) == 0 {
		return nil
	}
	return b.values
}

// toAttributeValue converts a predicate or item value into its wire form.
func toAttributeValue(v any) (types.AttributeValue, error) {
	switch tv := v.(type) {
	case types.AttributeValue:
		return tv, nil
	case strfmt.DateTime:
		return &types.AttributeValueMemberS{Value: tv.String()}, nil
	case *strfmt.DateTime:
		if tv == nil {
			return &types.AttributeValueMemberNULL{Value: true}, nil
		}
		return &types.AttributeValueMemberS{Value: tv.String()}, nil
	case strfmt.Date:
		return &types.AttributeValueMemberS{Value: tv.String()}, nil
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value %v: %w", v, err)
	}
	return av, nil
}

// toKeyAttributeValue converts v and coerces it to a key type of "S", "N" or "B".
func toKeyAttributeValue(v any, keyType string) (types.AttributeValue, error) {
	av, err := toAttributeValue(v)
	if err != nil {
		return nil, err
	}
	switch keyType {
	case "N":
		switch tv := av.(type) {
		case *types.AttributeValueMemberN:
			return tv, nil
		case *types.AttributeValueMemberS:
			if _, err := strconv.ParseFloat(tv.Value, 64); err != nil {
				return nil, fmt.Errorf("key value %q is not a number", tv.Value)
			}
			return &types.AttributeValueMemberN{Value: tv.Value}, nil
		}
	case "B":
		switch tv := av.(type) {
		case *types.AttributeValueMemberB:
			return tv, nil
		case *types.AttributeValueMemberS:
			return &types.AttributeValueMemberB{Value: []byte(tv.Value)}, nil
		}
	default:
		switch tv := av.(type) {
		case *types.AttributeValueMemberS:
			return tv, nil
		case *types.AttributeValueMemberN:
			return &types.AttributeValueMemberS{Value: tv.Value}, nil
		}
	}
	return nil, fmt.Errorf("value %v cannot be used as a %s key", v, keyType)
}
