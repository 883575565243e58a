/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// now is the clock behind the relative time windows.
var now = time.Now

// Time predicates compare RFC3339 timestamps rendered in UTC, which sort
// lexicographically the same way they sort in time. Columns are expected to
// hold strfmt.DateTime values.

// Since matches timestamps at or after t.
func Since(column string, t time.Time) Predicate {
	return Gte(column, timestamp(t))
}

// Before matches timestamps strictly before t.
func Before(column string, t time.Time) Predicate {
	return Lt(column, timestamp(t))
}

// Within matches timestamps in [start, end].
func Within(column string, start, end time.Time) Predicate {
	return Between(column, timestamp(start), timestamp(end))
}

// InLastHours matches timestamps of the last n hours.
func InLastHours(column string, hours int) Predicate {
	return Since(column, now().Add(-time.Duration(hours)*time.Hour))
}

// InLastDays matches timestamps of the last n days.
func InLastDays(column string, days int) Predicate {
	return Since(column, now().AddDate(0, 0, -days))
}

// Today matches timestamps of the current local day.
func Today(column string) Predicate {
	t := now()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Within(column, start, start.Add(24*time.Hour))
}

// ThisWeek matches timestamps since Monday 00:00 of the current week.
func ThisWeek(column string) Predicate {
	t := now()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the week
	}
	start := t.AddDate(0, 0, -weekday+1)
	return Since(column, time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()))
}

// ThisMonth matches timestamps since the first day of the current month.
func ThisMonth(column string) Predicate {
	t := now()
	return Since(column, time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()))
}

// Latest orders newest first on column.
func (ps PredicateSet) Latest(column string) PredicateSet {
	return ps.OrderedBy(column, Descending)
}

// Oldest orders oldest first on column.
func (ps PredicateSet) Oldest(column string) PredicateSet {
	return ps.OrderedBy(column, Ascending)
}

func timestamp(t time.Time) strfmt.DateTime {
	return strfmt.DateTime(t.UTC())
}
