/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	errs "github.com/suparena/ddbquery/errors"
	"github.com/suparena/ddbquery/storagemodels"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Count returns the number of items of table matching ps. The count runs on
// the cheapest access path and never materializes records.
func (e *Engine) Count(ctx context.Context, table string, ps storagemodels.PredicateSet) (storagemodels.CountResult, error) {
	res, err := e.Execute(ctx, table, ps.Counting())
	if err != nil {
		return storagemodels.CountResult{}, err
	}
	if res.Count == nil {
		return storagemodels.CountResult{}, errs.NewQueryError("count on %q produced no count", table)
	}
	return storagemodels.CountResult{Total: *res.Count, Segments: 1}, nil
}

// CountSegmented counts table with a parallel Scan split into segments.
// Up to Settings.SegmentConcurrency segments run at once. A segment that
// fails with a throttling or connection error contributes 0 and is listed in
// CountResult.FailedSegments; any other error aborts the count.
func (e *Engine) CountSegmented(ctx context.Context, table string, ps storagemodels.PredicateSet, segments int) (storagemodels.CountResult, error) {
	if segments < 1 || segments > MaxSegments {
		return storagemodels.CountResult{}, errs.NewValidationError("segments",
			fmt.Sprintf("must be between 1 and %d, got %d", MaxSegments, segments))
	}
	if err := ValidatePredicateSet(ps); err != nil {
		return storagemodels.CountResult{}, err
	}
	schema, err := e.schemas.Schema(ctx, table)
	if err != nil {
		return storagemodels.CountResult{}, err
	}
	base, err := CompileScan(schema, ps.Counting())
	if err != nil {
		return storagemodels.CountResult{}, err
	}

	var (
		mu     sync.Mutex
		total  int64
		failed []int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.settings.SegmentConcurrency)

	for i := 0; i < segments; i++ {
		segment := i
		g.Go(func() error {
			desc := *base
			desc.Segment = aws.Int32(int32(segment))
			desc.TotalSegments = aws.Int32(int32(segments))

			res, err := e.countPages(gctx, &desc)
			if err != nil {
				if !errs.IsTransient(err) {
					return fmt.Errorf("segment %d of %d: %w", segment, segments, err)
				}
				e.metrics.segmentSkipped()
				e.logger.Warn("skipping failed count segment",
					zap.String("table", table),
					zap.Int("segment", segment),
					zap.Int("total_segments", segments),
					zap.Error(err))
				mu.Lock()
				failed = append(failed, segment)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			total += *res.Count
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return storagemodels.CountResult{}, err
	}

	sort.Ints(failed)
	e.logger.Debug("segmented count complete",
		zap.String("table", table),
		zap.Int("segments", segments),
		zap.Int64("total", total),
		zap.Ints("failed_segments", failed))
	return storagemodels.CountResult{Total: total, Segments: segments, FailedSegments: failed}, nil
}
