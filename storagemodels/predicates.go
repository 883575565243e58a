/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "fmt"

// Operator is a predicate comparison.
type Operator string

const (
	OpEq         Operator = "="
	OpLt         Operator = "<"
	OpLte        Operator = "<="
	OpGt         Operator = ">"
	OpGte        Operator = ">="
	OpBetween    Operator = "between"
	OpBeginsWith Operator = "begins_with"
	OpLike       Operator = "like"
	OpIn         Operator = "in"
	OpIsNull     Operator = "is_null"
	OpNotNull    Operator = "not_null"
)

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	switch o {
	case OpEq, OpLt, OpLte, OpGt, OpGte, OpBetween, OpBeginsWith, OpLike, OpIn, OpIsNull, OpNotNull:
		return true
	}
	return false
}

// SortKeyCapable reports whether o can be evaluated natively on a sort key.
func (o Operator) SortKeyCapable() bool {
	switch o {
	case OpEq, OpLt, OpLte, OpGt, OpGte, OpBetween, OpBeginsWith:
		return true
	}
	return false
}

// Predicate is one column comparison. Values holds one value for scalar
// operators, two for between, any number for in, and none for null checks.
type Predicate struct {
	Column   string   `json:"column" yaml:"column"`
	Operator Operator `json:"op" yaml:"op"`
	Values   []any    `json:"values,omitempty" yaml:"values,omitempty"`
}

// Value returns the first value, or nil.
func (p Predicate) Value() any {
	if len(p.Values) == 0 {
		return nil
	}
	return p.Values[0]
}

func (p Predicate) String() string {
	switch p.Operator {
	case OpIsNull, OpNotNull:
		return fmt.Sprintf("%s %s", p.Column, p.Operator)
	case OpBetween, OpIn:
		return fmt.Sprintf("%s %s %v", p.Column, p.Operator, p.Values)
	}
	return fmt.Sprintf("%s %s %v", p.Column, p.Operator, p.Value())
}

// Eq and the comparison helpers below build single-value predicates.
func Eq(column string, v any) Predicate {
	return Predicate{Column: column, Operator: OpEq, Values: []any{v}}
}

func Lt(column string, v any) Predicate {
	return Predicate{Column: column, Operator: OpLt, Values: []any{v}}
}

func Lte(column string, v any) Predicate {
	return Predicate{Column: column, Operator: OpLte, Values: []any{v}}
}

func Gt(column string, v any) Predicate {
	return Predicate{Column: column, Operator: OpGt, Values: []any{v}}
}

func Gte(column string, v any) Predicate {
	return Predicate{Column: column, Operator: OpGte, Values: []any{v}}
}

func Between(column string, lo, hi any) Predicate {
	return Predicate{Column: column, Operator: OpBetween, Values: []any{lo, hi}}
}

func BeginsWith(column, prefix string) Predicate {
	return Predicate{Column: column, Operator: OpBeginsWith, Values: []any{prefix}}
}

// Like takes a SQL pattern such as "%term%".
func Like(column, pattern string) Predicate {
	return Predicate{Column: column, Operator: OpLike, Values: []any{pattern}}
}

func In(column string, values ...any) Predicate {
	return Predicate{Column: column, Operator: OpIn, Values: values}
}

func IsNull(column string) Predicate  { return Predicate{Column: column, Operator: OpIsNull} }
func NotNull(column string) Predicate { return Predicate{Column: column, Operator: OpNotNull} }

// Direction is an order-by direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// OrderBy is the single supported ordering.
type OrderBy struct {
	Column    string    `json:"column" yaml:"column"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// PredicateSet is a caller's normalized WHERE/ORDER/LIMIT/projection request.
type PredicateSet struct {
	Predicates []Predicate `json:"where,omitempty" yaml:"where,omitempty"`
	Order      *OrderBy    `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
	// Limit of 0 means no limit.
	Limit      int      `json:"limit,omitempty" yaml:"limit,omitempty"`
	Projection []string `json:"select,omitempty" yaml:"select,omitempty"`
	CountOnly  bool     `json:"countOnly,omitempty" yaml:"countOnly,omitempty"`
	// Cursor is an opaque continuation returned by a previous call.
	Cursor string `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	// Raw is a raw-text request. Only structured predicates are accepted, so a
	// non-empty Raw is always rejected.
	Raw string `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Where builds a PredicateSet from predicates.
func Where(predicates ...Predicate) PredicateSet {
	return PredicateSet{Predicates: predicates}
}

// OrderedBy returns a copy ordered by column.
func (ps PredicateSet) OrderedBy(column string, dir Direction) PredicateSet {
	ps.Order = &OrderBy{Column: column, Direction: dir}
	return ps
}

// WithLimit returns a copy with a limit.
func (ps PredicateSet) WithLimit(n int) PredicateSet {
	ps.Limit = n
	return ps
}

// Select returns a copy projecting only columns.
func (ps PredicateSet) Select(columns ...string) PredicateSet {
	ps.Projection = columns
	return ps
}

// Counting returns a count-only copy.
func (ps PredicateSet) Counting() PredicateSet {
	ps.CountOnly = true
	return ps
}

// After returns a copy resuming from cursor.
func (ps PredicateSet) After(cursor string) PredicateSet {
	ps.Cursor = cursor
	return ps
}
