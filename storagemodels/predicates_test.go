/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicateSetBuilders(t *testing.T) {
	base := Where(Eq("status", "active"))
	ps := base.OrderedBy("age", Descending).WithLimit(10).Select("id").After("c1")

	assert.Nil(t, base.Order, "builders return copies")
	require.NotNil(t, ps.Order)
	assert.Equal(t, OrderBy{Column: "age", Direction: Descending}, *ps.Order)
	assert.Equal(t, 10, ps.Limit)
	assert.Equal(t, []string{"id"}, ps.Projection)
	assert.Equal(t, "c1", ps.Cursor)
	assert.False(t, ps.CountOnly)
	assert.True(t, ps.Counting().CountOnly)
}

func TestOperators(t *testing.T) {
	for _, op := range []Operator{OpEq, OpLt, OpLte, OpGt, OpGte, OpBetween, OpBeginsWith} {
		assert.True(t, op.Valid(), op)
		assert.True(t, op.SortKeyCapable(), op)
	}
	for _, op := range []Operator{OpLike, OpIn, OpIsNull, OpNotNull} {
		assert.True(t, op.Valid(), op)
		assert.False(t, op.SortKeyCapable(), op)
	}
	assert.False(t, Operator("~").Valid())
}

func TestPredicateString(t *testing.T) {
	assert.Equal(t, "age > 3", Gt("age", 3).String())
	assert.Equal(t, "age between [1 9]", Between("age", 1, 9).String())
	assert.Equal(t, "name is_null", IsNull("name").String())
	assert.Nil(t, IsNull("name").Value())
}

func TestTimePredicates(t *testing.T) {
	// Wednesday.
	fixed := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	ts := func(s string) strfmt.DateTime {
		parsed, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return strfmt.DateTime(parsed)
	}

	tests := []struct {
		name string
		got  Predicate
		want Predicate
	}{
		{"since", Since("createdAt", fixed), Gte("createdAt", ts("2025-03-12T15:30:00Z"))},
		{"before", Before("createdAt", fixed), Lt("createdAt", ts("2025-03-12T15:30:00Z"))},
		{"last hours", InLastHours("createdAt", 2), Gte("createdAt", ts("2025-03-12T13:30:00Z"))},
		{"last days", InLastDays("createdAt", 7), Gte("createdAt", ts("2025-03-05T15:30:00Z"))},
		{"today", Today("createdAt"), Between("createdAt", ts("2025-03-12T00:00:00Z"), ts("2025-03-13T00:00:00Z"))},
		{"this week", ThisWeek("createdAt"), Gte("createdAt", ts("2025-03-10T00:00:00Z"))},
		{"this month", ThisMonth("createdAt"), Gte("createdAt", ts("2025-03-01T00:00:00Z"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.Operator, tt.got.Operator)
			require.Len(t, tt.got.Values, len(tt.want.Values))
			for i := range tt.want.Values {
				assert.Equal(t, tt.want.Values[i].(strfmt.DateTime).String(), tt.got.Values[i].(strfmt.DateTime).String())
			}
		})
	}
}

func TestThisWeekOnSunday(t *testing.T) {
	sunday := time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)
	now = func() time.Time { return sunday }
	t.Cleanup(func() { now = time.Now })

	p := ThisWeek("createdAt")
	assert.Equal(t, "2025-03-10T00:00:00.000Z", p.Value().(strfmt.DateTime).String())
}

func TestOrderHelpers(t *testing.T) {
	assert.Equal(t, Descending, Where().Latest("createdAt").Order.Direction)
	assert.Equal(t, Ascending, Where().Oldest("createdAt").Order.Direction)
}
