/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsNormalized(t *testing.T) {
	s := Settings{SubPageSize: 7, BatchGetChunkSize: 500}.normalized()

	assert.Equal(t, 7, s.SubPageSize)
	assert.Equal(t, MaxBatchGetKeys, s.BatchGetChunkSize)
	assert.Equal(t, DefaultSmallLimit, s.SmallLimit)
	assert.Equal(t, DefaultPaginationCeiling, s.PaginationCeiling)
	assert.Equal(t, DefaultSegmentConcurrency, s.SegmentConcurrency)
}

func TestScanCeiling(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, DefaultTinyLimitCeiling, s.scanCeiling(1))
	assert.Equal(t, DefaultTinyLimitCeiling, s.scanCeiling(DefaultTinyLimit))
	assert.Equal(t, 18, s.scanCeiling(6))
	assert.Equal(t, 150, s.scanCeiling(50))
}

func TestEarlyStops(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, s.earlyStops(10, true))
	assert.True(t, s.earlyStops(DefaultSmallLimit, true))
	assert.False(t, s.earlyStops(DefaultSmallLimit+1, true))
	assert.False(t, s.earlyStops(10, false))
	assert.False(t, s.earlyStops(0, true))
}

func TestPageSize(t *testing.T) {
	assert.EqualValues(t, 20, pageSize(20))
	assert.EqualValues(t, math.MaxInt32, pageSize(math.MaxInt32))
	assert.EqualValues(t, math.MaxInt32, pageSize(1<<40))
}
