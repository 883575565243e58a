/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// condition evaluates a parsed key-condition or filter expression against one item.
type condition func(item map[string]types.AttributeValue) bool

// operand resolves a name or value placeholder for one item.
type operand func(item map[string]types.AttributeValue) (types.AttributeValue, bool)

// parseCondition parses the expression subset DynamoDB accepts for key
// conditions and filters: comparisons, BETWEEN, IN, begins_with, contains,
// attribute_exists and attribute_not_exists, joined by AND.
func parseCondition(expr string, names map[string]string, values map[string]types.AttributeValue) (condition, error) {
	if strings.TrimSpace(expr) == "" {
		return func(map[string]types.AttributeValue) bool { return true }, nil
	}
	p := &parser{toks: tokenize(expr), names: names, values: values}
	cond, err := p.expr()
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expr, err)
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("invalid expression %q: unexpected %q", expr, p.peek())
	}
	return cond, nil
}

// projectionNames resolves a projection expression into attribute names.
func projectionNames(expr string, names map[string]string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "#") {
			name, ok := names[part]
			if !ok {
				return nil, fmt.Errorf("undefined name placeholder %s", part)
			}
			part = name
		}
		out = append(out, part)
	}
	return out, nil
}

func tokenize(s string) []string {
	var toks []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(' || c == ')' || c == ',':
			toks = append(toks, string(c))
			i++
		case c == '<' || c == '>' || c == '=':
			if i+1 < len(s) && (s[i+1] == '=' || (c == '<' && s[i+1] == '>')) {
				toks = append(toks, s[i:i+2])
				i += 2
			} else {
				toks = append(toks, string(c))
				i++
			}
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\n(),<>=", rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

type parser struct {
	toks   []string
	pos    int
	names  map[string]string
	values map[string]types.AttributeValue
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expect(tok string) error {
	if got := p.next(); !strings.EqualFold(got, tok) {
		return fmt.Errorf("expected %q, got %q", tok, got)
	}
	return nil
}

func (p *parser) expr() (condition, error) {
	left, err := p.cond()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "AND") {
		p.next()
		right, err := p.cond()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(item map[string]types.AttributeValue) bool {
			return l(item) && right(item)
		}
	}
	return left, nil
}

func (p *parser) cond() (condition, error) {
	tok := p.next()
	switch strings.ToLower(tok) {
	case "begins_with", "contains":
		fn := strings.ToLower(tok)
		args, err := p.args(2)
		if err != nil {
			return nil, err
		}
		return func(item map[string]types.AttributeValue) bool {
			a, ok := args[0](item)
			if !ok {
				return false
			}
			b, ok := args[1](item)
			if !ok {
				return false
			}
			if fn == "begins_with" {
				return beginsWith(a, b)
			}
			return contains(a, b)
		}, nil
	case "attribute_exists", "attribute_not_exists":
		exists := strings.ToLower(tok) == "attribute_exists"
		args, err := p.args(1)
		if err != nil {
			return nil, err
		}
		return func(item map[string]types.AttributeValue) bool {
			_, ok := args[0](item)
			return ok == exists
		}, nil
	}

	left, err := p.operand(tok)
	if err != nil {
		return nil, err
	}
	op := p.next()
	switch strings.ToUpper(op) {
	case "=", "<>", "<", "<=", ">", ">=":
		right, err := p.operand(p.next())
		if err != nil {
			return nil, err
		}
		return func(item map[string]types.AttributeValue) bool {
			a, ok := left(item)
			if !ok {
				return false
			}
			b, ok := right(item)
			if !ok {
				return false
			}
			return compareWith(op, a, b)
		}, nil
	case "BETWEEN":
		lo, err := p.operand(p.next())
		if err != nil {
			return nil, err
		}
		if err := p.expect("AND"); err != nil {
			return nil, err
		}
		hi, err := p.operand(p.next())
		if err != nil {
			return nil, err
		}
		return func(item map[string]types.AttributeValue) bool {
			v, ok := left(item)
			if !ok {
				return false
			}
			l, _ := lo(item)
			h, _ := hi(item)
			return compareWith(">=", v, l) && compareWith("<=", v, h)
		}, nil
	case "IN":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		var list []operand
		for {
			o, err := p.operand(p.next())
			if err != nil {
				return nil, err
			}
			list = append(list, o)
			if sep := p.next(); sep == ")" {
				break
			} else if sep != "," {
				return nil, fmt.Errorf("expected \",\" or \")\" in IN list, got %q", sep)
			}
		}
		return func(item map[string]types.AttributeValue) bool {
			v, ok := left(item)
			if !ok {
				return false
			}
			for _, o := range list {
				if c, _ := o(item); equal(v, c) {
					return true
				}
			}
			return false
		}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", op)
}

func (p *parser) args(n int) ([]operand, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	out := make([]operand, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		o, err := p.operand(p.next())
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, p.expect(")")
}

func (p *parser) operand(tok string) (operand, error) {
	switch {
	case tok == "":
		return nil, fmt.Errorf("unexpected end of expression")
	case strings.HasPrefix(tok, ":"):
		v, ok := p.values[tok]
		if !ok {
			return nil, fmt.Errorf("undefined value placeholder %s", tok)
		}
		return func(map[string]types.AttributeValue) (types.AttributeValue, bool) { return v, true }, nil
	case strings.HasPrefix(tok, "#"):
		name, ok := p.names[tok]
		if !ok {
			return nil, fmt.Errorf("undefined name placeholder %s", tok)
		}
		tok = name
	}
	attr := tok
	return func(item map[string]types.AttributeValue) (types.AttributeValue, bool) {
		v, ok := item[attr]
		return v, ok
	}, nil
}

// compare orders two scalars of the same type. ok is false for mixed or non-scalar types.
func compare(a, b types.AttributeValue) (int, bool) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		if bv, ok := b.(*types.AttributeValueMemberS); ok {
			return strings.Compare(av.Value, bv.Value), true
		}
	case *types.AttributeValueMemberN:
		if bv, ok := b.(*types.AttributeValueMemberN); ok {
			x, errX := strconv.ParseFloat(av.Value, 64)
			y, errY := strconv.ParseFloat(bv.Value, 64)
			if errX != nil || errY != nil {
				return 0, false
			}
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
	case *types.AttributeValueMemberB:
		if bv, ok := b.(*types.AttributeValueMemberB); ok {
			return bytes.Compare(av.Value, bv.Value), true
		}
	}
	return 0, false
}

func equal(a, b types.AttributeValue) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func compareWith(op string, a, b types.AttributeValue) bool {
	switch op {
	case "=":
		return equal(a, b)
	case "<>":
		return !equal(a, b)
	}
	c, ok := compare(a, b)
	if !ok {
		return false
	}
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func beginsWith(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		if bv, ok := b.(*types.AttributeValueMemberS); ok {
			return strings.HasPrefix(av.Value, bv.Value)
		}
	case *types.AttributeValueMemberB:
		if bv, ok := b.(*types.AttributeValueMemberB); ok {
			return bytes.HasPrefix(av.Value, bv.Value)
		}
	}
	return false
}

func contains(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		if bv, ok := b.(*types.AttributeValueMemberS); ok {
			return strings.Contains(av.Value, bv.Value)
		}
	case *types.AttributeValueMemberSS:
		if bv, ok := b.(*types.AttributeValueMemberS); ok {
			for _, s := range av.Value {
				if s == bv.Value {
					return true
				}
			}
		}
	case *types.AttributeValueMemberL:
		for _, v := range av.Value {
			if equal(v, b) {
				return true
			}
		}
	}
	return false
}
