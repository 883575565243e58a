/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import "time"

// Tuned heuristic thresholds. Settings overrides any of them per engine.
const (
	// DefaultSubPageSize is the raw page size used while early-stopping a filtered read.
	DefaultSubPageSize = 20
	// DefaultSmallLimit is the largest limit that enables early-stop and the no-filter short-circuit.
	DefaultSmallLimit = 50
	// DefaultScanCeilingFactor bounds an early-stopped read to limit*factor raw items.
	DefaultScanCeilingFactor = 3
	// DefaultTinyLimit is the largest limit that gets DefaultTinyLimitCeiling instead.
	DefaultTinyLimit = 5
	// DefaultTinyLimitCeiling tolerates many non-matching rows for "most likely absent" lookups.
	DefaultTinyLimitCeiling = 10000
	// DefaultPaginationCeiling stops auto-pagination once this many items are collected.
	DefaultPaginationCeiling = 1000
	// MaxBatchGetKeys is the store's BatchGetItem key limit per round trip.
	MaxBatchGetKeys = 100
	// MaxSegments is the largest accepted segment count for segmented counting.
	MaxSegments = 100
	// DefaultSegmentConcurrency is the number of segments scanned at once.
	DefaultSegmentConcurrency = 4
	// DefaultMetadataTTL is how long a described table schema stays fresh.
	DefaultMetadataTTL = 5 * time.Minute
)

// Settings holds the engine thresholds. Zero fields fall back to the defaults.
type Settings struct {
	SubPageSize        int `yaml:"subPageSize"`
	SmallLimit         int `yaml:"smallLimit"`
	ScanCeilingFactor  int `yaml:"scanCeilingFactor"`
	TinyLimit          int `yaml:"tinyLimit"`
	TinyLimitCeiling   int `yaml:"tinyLimitCeiling"`
	PaginationCeiling  int `yaml:"paginationCeiling"`
	BatchGetChunkSize  int `yaml:"batchGetChunkSize"`
	SegmentConcurrency int `yaml:"segmentConcurrency"`
}

// DefaultSettings returns the tuned defaults.
func DefaultSettings() Settings {
	return Settings{
		SubPageSize:        DefaultSubPageSize,
		SmallLimit:         DefaultSmallLimit,
		ScanCeilingFactor:  DefaultScanCeilingFactor,
		TinyLimit:          DefaultTinyLimit,
		TinyLimitCeiling:   DefaultTinyLimitCeiling,
		PaginationCeiling:  DefaultPaginationCeiling,
		BatchGetChunkSize:  MaxBatchGetKeys,
		SegmentConcurrency: DefaultSegmentConcurrency,
	}
}

func (s Settings) normalized() Settings {
	d := DefaultSettings()
	if s.SubPageSize <= 0 {
		s.SubPageSize = d.SubPageSize
	}
	if s.SmallLimit <= 0 {
		s.SmallLimit = d.SmallLimit
	}
	if s.ScanCeilingFactor <= 0 {
		s.ScanCeilingFactor = d.ScanCeilingFactor
	}
	if s.TinyLimit <= 0 {
		s.TinyLimit = d.TinyLimit
	}
	if s.TinyLimitCeiling <= 0 {
		s.TinyLimitCeiling = d.TinyLimitCeiling
	}
	if s.PaginationCeiling <= 0 {
		s.PaginationCeiling = d.PaginationCeiling
	}
	if s.BatchGetChunkSize <= 0 || s.BatchGetChunkSize > MaxBatchGetKeys {
		s.BatchGetChunkSize = MaxBatchGetKeys
	}
	if s.SegmentConcurrency <= 0 {
		s.SegmentConcurrency = d.SegmentConcurrency
	}
	return s
}

// scanCeiling returns the raw-item ceiling of an early-stopped read.
func (s Settings) scanCeiling(limit int) int {
	if limit <= s.TinyLimit {
		return s.TinyLimitCeiling
	}
	return limit * s.ScanCeilingFactor
}

// earlyStops reports whether a read with this limit and filter uses sub-page early-stop.
func (s Settings) earlyStops(limit int, hasFilter bool) bool {
	return hasFilter && limit > 0 && limit <= s.SmallLimit
}
