// Pipeline metrics.
//
// Counters and histograms describing ingestion behavior over time: how many
// cycles ran, how long they took, what happened to each discovered unit and
// at which stage the failed ones died. Labels are small fixed vocabularies
// (outcome, stage) so cardinality stays bounded.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ingestCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_cycles_total",
			Help: "Total number of ingestion cycles, by result.",
		},
		[]string{"result"}, // ok | failed
	)

	ingestCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_cycle_duration_seconds",
			Help:    "Duration of ingestion cycles in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ingestPosts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_posts_total",
			Help: "Per-unit pipeline outcomes.",
		},
		[]string{"outcome"}, // inserted | replaced | stale | skipped | failed
	)

	ingestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_failures_total",
			Help: "Per-unit failures by pipeline stage.",
		},
		[]string{"stage"}, // fetch | extract | classify | store
	)
)

func init() {
	prometheus.MustRegister(ingestCycles, ingestCycleDuration, ingestPosts, ingestFailures)
}
