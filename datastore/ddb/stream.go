/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	errs "github.com/suparena/ddbquery/errors"
	"github.com/suparena/ddbquery/storagemodels"
	"go.uber.org/zap"
)

// Stream runs ps against table and delivers records on a channel as pages
// arrive. The channel is closed when the read completes, the limit is reached,
// ctx is cancelled, or after a result carrying an error. Failed pages are not
// retried.
func (e *Engine) Stream(ctx context.Context, table string, ps storagemodels.PredicateSet, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.BufferSize < 0 {
		options.BufferSize = 0
	}

	resultCh := make(chan storagemodels.StreamResult, options.BufferSize)
	go e.streamWorker(ctx, table, ps, options, resultCh)
	return resultCh
}

func (e *Engine) streamWorker(
	ctx context.Context,
	table string,
	ps storagemodels.PredicateSet,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult,
) {
	defer close(resultCh)

	var (
		index     int64
		scanned   int64
		pages     int
		startTime = time.Now()
	)

	send := func(res storagemodels.StreamResult) bool {
		select {
		case <-ctx.Done():
			return false
		case resultCh <- res:
			return true
		}
	}
	fail := func(err error) {
		send(storagemodels.StreamResult{
			Error: err,
			Meta:  storagemodels.StreamMeta{Index: index, PageNumber: pages, Timestamp: time.Now()},
		})
	}
	reportProgress := func(lastKey map[string]types.AttributeValue) {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: index,
			ItemsScanned:   scanned,
			PagesProcessed: pages,
			StartTime:      startTime,
		}
		if cursor, err := EncodeCursor(lastKey); err == nil {
			progress.Cursor = cursor
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}
	// emit sends one page of items and reports whether streaming should go on.
	emit := func(items []map[string]types.AttributeValue) bool {
		now := time.Now()
		for _, item := range items {
			rec, err := MapItem(item)
			res := storagemodels.StreamResult{
				Record: rec,
				Raw:    item,
				Meta:   storagemodels.StreamMeta{Index: index, PageNumber: pages, Timestamp: now},
			}
			if err != nil {
				res.Record = nil
				res.Error = err
			}
			if !send(res) {
				return false
			}
			index++
			if err != nil {
				return false
			}
		}
		return true
	}

	if ps.CountOnly {
		fail(errs.NewQueryError("count-only requests cannot be streamed"))
		return
	}
	desc, err := e.Compile(ctx, table, ps)
	if err != nil {
		fail(err)
		return
	}

	switch desc.Kind {
	case storagemodels.OpQuery, storagemodels.OpScan:
	default:
		res, err := e.Run(ctx, desc)
		if err != nil {
			fail(err)
			return
		}
		pages = 1
		if emit(res.Raw) {
			reportProgress(nil)
		}
		return
	}

	next := desc.ExclusiveStartKey
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		size := options.PageSize
		if desc.Limit > 0 {
			if left := int64(desc.Limit) - index; size <= 0 || left < int64(size) {
				size = pageSize(left)
			}
		}

		p, err := e.fetchPage(ctx, desc, next, size)
		if err != nil {
			fail(err)
			return
		}
		pages++
		scanned += p.scanned

		items := p.items
		truncated := false
		if desc.Limit > 0 && index+int64(len(items)) > int64(desc.Limit) {
			items = items[:desc.Limit-int(index)]
			truncated = true
		}
		if !emit(withoutAttributes(items, desc.HiddenAttributes)) {
			return
		}

		next = p.lastKey
		if truncated && len(items) > 0 {
			next = itemKey(items[len(items)-1], desc.KeyAttributes)
		}
		reportProgress(next)

		if len(next) == 0 || (desc.Limit > 0 && index >= int64(desc.Limit)) {
			break
		}
	}

	e.logger.Debug("stream complete",
		zap.String("table", table),
		zap.String("access_path", accessPath(desc)),
		zap.Int("pages", pages),
		zap.Int64("items", index),
		zap.Int64("scanned", scanned))
}
