/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	errs "github.com/suparena/ddbquery/errors"
	"github.com/suparena/ddbquery/storagemodels"
	"go.uber.org/zap"
)

// page is one Query or Scan round trip.
type page struct {
	items   []map[string]types.AttributeValue
	count   int64
	scanned int64
	lastKey map[string]types.AttributeValue
}

// pageSize narrows n to a store page limit, saturating at math.MaxInt32.
func pageSize(n int64) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}

// fetchPage issues one round trip for desc starting at startKey. A zero limit leaves the store's page size.
func (e *Engine) fetchPage(ctx context.Context, desc *storagemodels.OperationDescriptor, startKey map[string]types.AttributeValue, limit int32) (*page, error) {
	var (
		p   page
		err error
	)
	op := string(desc.Kind)
	e.metrics.roundTrip(op)

	switch desc.Kind {
	case storagemodels.OpQuery:
		input := &sdk.QueryInput{
			TableName:                 aws.String(desc.TableName),
			KeyConditionExpression:    aws.String(desc.KeyConditionExpression),
			ExpressionAttributeNames:  desc.Names,
			ExpressionAttributeValues: desc.Values,
			ExclusiveStartKey:         startKey,
			ScanIndexForward:          desc.ScanForward,
		}
		if desc.IndexName != "" {
			input.IndexName = aws.String(desc.IndexName)
		}
		if desc.FilterExpression != "" {
			input.FilterExpression = aws.String(desc.FilterExpression)
		}
		if desc.ProjectionExpression != "" {
			input.ProjectionExpression = aws.String(desc.ProjectionExpression)
		}
		if desc.CountOnly {
			input.Select = types.SelectCount
		}
		if limit > 0 {
			input.Limit = aws.Int32(limit)
		}

		var out *sdk.QueryOutput
		if out, err = e.client.Query(ctx, input); err == nil {
			p = page{items: out.Items, count: int64(out.Count), scanned: int64(out.ScannedCount), lastKey: out.LastEvaluatedKey}
		}

	case storagemodels.OpScan:
		input := &sdk.ScanInput{
			TableName:                 aws.String(desc.TableName),
			ExpressionAttributeNames:  desc.Names,
			ExpressionAttributeValues: desc.Values,
			ExclusiveStartKey:         startKey,
			Segment:                   desc.Segment,
			TotalSegments:             desc.TotalSegments,
		}
		if desc.FilterExpression != "" {
			input.FilterExpression = aws.String(desc.FilterExpression)
		}
		if desc.ProjectionExpression != "" {
			input.ProjectionExpression = aws.String(desc.ProjectionExpression)
		}
		if desc.CountOnly {
			input.Select = types.SelectCount
		}
		if limit > 0 {
			input.Limit = aws.Int32(limit)
		}

		var out *sdk.ScanOutput
		if out, err = e.client.Scan(ctx, input); err == nil {
			p = page{items: out.Items, count: int64(out.Count), scanned: int64(out.ScannedCount), lastKey: out.LastEvaluatedKey}
		}

	default:
		return nil, errs.NewQueryError("operation %q is not paged", desc.Kind)
	}

	if err != nil {
		return nil, errs.Classify(err, desc.TableName, op, "")
	}
	if p.scanned < int64(len(p.items)) {
		p.scanned = int64(len(p.items))
	}
	e.metrics.scanned(p.scanned)
	return &p, nil
}

// collect pages through a Query or Scan until the limit is met, the
// continuation is exhausted, or one of the I/O ceilings trips.
func (e *Engine) collect(ctx context.Context, desc *storagemodels.OperationDescriptor) (*storagemodels.Result, error) {
	var (
		items   []map[string]types.AttributeValue
		scanned int64
		pages   int
		next    = desc.ExclusiveStartKey
	)

	limit := desc.Limit
	earlyStop := e.settings.earlyStops(limit, desc.HasFilter())
	ceiling := int64(e.settings.scanCeiling(limit))

	for {
		var pageLimit int
		switch {
		case earlyStop:
			pageLimit = e.settings.SubPageSize
			if left := ceiling - scanned; left < int64(pageLimit) {
				pageLimit = int(left)
			}
		case limit > 0:
			pageLimit = limit - len(items)
		}

		p, err := e.fetchPage(ctx, desc, next, pageSize(int64(pageLimit)))
		if err != nil {
			return nil, err
		}
		pages++
		scanned += p.scanned
		items = append(items, p.items...)
		next = p.lastKey

		if len(next) == 0 {
			break
		}
		if limit > 0 && len(items) >= limit {
			break
		}
		if earlyStop && scanned >= ceiling {
			e.logger.Debug("early stop ceiling reached",
				zap.String("table", desc.TableName),
				zap.Int("limit", limit),
				zap.Int64("scanned", scanned),
				zap.Int("matched", len(items)))
			break
		}
		if pages == 1 && len(p.items) == 0 && !desc.HasFilter() && limit > 0 && limit <= e.settings.SmallLimit {
			// The key condition alone decides membership, so later pages are empty too.
			next = nil
			break
		}
		if len(items) >= e.settings.PaginationCeiling {
			e.logger.Warn("pagination ceiling reached",
				zap.String("table", desc.TableName),
				zap.Int("collected", len(items)),
				zap.Int("ceiling", e.settings.PaginationCeiling))
			break
		}
	}

	// A truncated page resumes after the last item handed back, not after the page.
	if limit > 0 && len(items) > limit {
		items = items[:limit]
		next = itemKey(items[len(items)-1], desc.KeyAttributes)
	}

	res, err := newItemsResult(withoutAttributes(items, desc.HiddenAttributes))
	if err != nil {
		return nil, err
	}
	res.ScannedCount = scanned
	if len(next) > 0 {
		cursor, err := EncodeCursor(next)
		if err != nil {
			e.logger.Warn("dropping unencodable cursor",
				zap.String("table", desc.TableName),
				zap.Error(err))
		} else {
			res.Cursor = cursor
		}
	}

	e.logger.Debug("read complete",
		zap.String("table", desc.TableName),
		zap.String("operation", string(desc.Kind)),
		zap.String("access_path", accessPath(desc)),
		zap.Int("pages", pages),
		zap.Int("returned", len(items)),
		zap.Int64("scanned", scanned))
	return res, nil
}

// countPages sums the store-side counts of every page of a count-only Query or Scan.
func (e *Engine) countPages(ctx context.Context, desc *storagemodels.OperationDescriptor) (*storagemodels.Result, error) {
	var (
		total   int64
		scanned int64
		next    = desc.ExclusiveStartKey
	)
	for {
		p, err := e.fetchPage(ctx, desc, next, 0)
		if err != nil {
			return nil, err
		}
		total += p.count
		scanned += p.scanned
		next = p.lastKey
		if len(next) == 0 {
			break
		}
	}
	return newCountResult(total, scanned), nil
}
