/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "github.com/suparena/ddbquery/errors"
	sm "github.com/suparena/ddbquery/storagemodels"
)

// failSegment injects err into every Scan of one segment.
func failSegment(segment int32, err error) func(op string, input any) error {
	return func(op string, input any) error {
		in, ok := input.(*sdk.ScanInput)
		if ok && aws.ToInt32(in.Segment) == segment {
			return err
		}
		return nil
	}
}

func TestCountSegmented(t *testing.T) {
	ctx := context.Background()

	t.Run("sums every segment", func(t *testing.T) {
		client := numberedUsers(t, 100)
		engine := newTestEngine(t, client)

		res, err := engine.CountSegmented(ctx, "users", sm.Where(), 4)
		require.NoError(t, err)
		assert.EqualValues(t, 100, res.Total)
		assert.Equal(t, 4, res.Segments)
		assert.Empty(t, res.FailedSegments)
		assert.Equal(t, 4, client.CallCount("Scan"))

		for _, call := range client.Calls() {
			in := call.Input.(*sdk.ScanInput)
			assert.Equal(t, types.SelectCount, in.Select)
			assert.EqualValues(t, 4, aws.ToInt32(in.TotalSegments))
		}
	})

	t.Run("filters apply per segment", func(t *testing.T) {
		engine := newTestEngine(t, numberedUsers(t, 100))

		res, err := engine.CountSegmented(ctx, "users", sm.Where(sm.Lte("age", 40)), 3)
		require.NoError(t, err)
		assert.EqualValues(t, 40, res.Total)
	})

	t.Run("transient failure skips the segment", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		metrics := NewMetrics(reg)
		client := numberedUsers(t, 100).WithFault(failSegment(2,
			&types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}))
		engine := newTestEngine(t, client, WithMetrics(metrics))

		res, err := engine.CountSegmented(ctx, "users", sm.Where(), 4)
		require.NoError(t, err)
		assert.EqualValues(t, 75, res.Total)
		assert.Equal(t, []int{2}, res.FailedSegments)
		assert.True(t, res.Partial())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.skippedSegments))
	})

	t.Run("other failures abort", func(t *testing.T) {
		boom := errors.New("boom")
		client := numberedUsers(t, 100).WithFault(failSegment(1, boom))
		engine := newTestEngine(t, client)

		_, err := engine.CountSegmented(ctx, "users", sm.Where(), 4)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "segment 1 of 4")
	})

	t.Run("segment count is validated first", func(t *testing.T) {
		for _, segments := range []int{0, -1, MaxSegments + 1} {
			client := numberedUsers(t, 10)
			engine := newTestEngine(t, client)

			_, err := engine.CountSegmented(ctx, "users", sm.Where(), segments)
			assert.True(t, errs.IsValidationError(err), "segments=%d", segments)
			assert.Empty(t, client.Calls())
		}
	})

	t.Run("one segment at a time", func(t *testing.T) {
		client := numberedUsers(t, 30).WithMaxPageSize(4)
		engine := newTestEngine(t, client, WithSettings(Settings{SegmentConcurrency: 1}))

		res, err := engine.CountSegmented(ctx, "users", sm.Where(), 3)
		require.NoError(t, err)
		assert.EqualValues(t, 30, res.Total)
		// Each segment holds ten items and pages four at a time.
		assert.Equal(t, 9, client.CallCount("Scan"))
	})

	t.Run("more segments than items", func(t *testing.T) {
		engine := newTestEngine(t, numberedUsers(t, 3))

		res, err := engine.CountSegmented(ctx, "users", sm.Where(), MaxSegments)
		require.NoError(t, err)
		assert.EqualValues(t, 3, res.Total)
		assert.Equal(t, MaxSegments, res.Segments)
	})
}
