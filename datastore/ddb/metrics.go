/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts store round trips and the engine's absorbed failures.
// A nil *Metrics records nothing.
type Metrics struct {
	roundTrips      *prometheus.CounterVec
	itemsScanned    prometheus.Counter
	skippedSegments prometheus.Counter
	unprocessedKeys prometheus.Counter
}

// NewMetrics registers the engine collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		roundTrips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ddbquery",
			Name:      "round_trips_total",
			Help:      "Store calls issued, by operation.",
		}, []string{"operation"}),
		itemsScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ddbquery",
			Name:      "items_scanned_total",
			Help:      "Raw items evaluated by Query and Scan calls.",
		}),
		skippedSegments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ddbquery",
			Name:      "count_segments_skipped_total",
			Help:      "Segments that contributed zero to a segmented count after a transient error.",
		}),
		unprocessedKeys: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ddbquery",
			Name:      "batch_unprocessed_keys_total",
			Help:      "Batch-get keys the store left unprocessed.",
		}),
	}
}

func (m *Metrics) roundTrip(operation string) {
	if m == nil {
		return
	}
	m.roundTrips.WithLabelValues(operation).Inc()
}

func (m *Metrics) scanned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.itemsScanned.Add(float64(n))
}

func (m *Metrics) segmentSkipped() {
	if m == nil {
		return
	}
	m.skippedSegments.Inc()
}

func (m *Metrics) unprocessed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unprocessedKeys.Add(float64(n))
}
