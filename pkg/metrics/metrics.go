package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "starschema_build_info",
			Help: "Build information of the star-schema service",
		},
		[]string{"version", "commit", "date"},
	)

	CDCEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starschema_cdc_events_total",
			Help: "Total number of CDC events consumed",
		},
		[]string{"table", "operation", "status"},
	)

	CDCDeadLetterTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starschema_cdc_dead_letter_total",
			Help: "Total number of CDC events routed to the dead-letter counter",
		},
		[]string{"reason"},
	)

	CDCBatchFlushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starschema_cdc_batch_flush_duration_seconds",
			Help:    "Duration of CDC batch flushes into ClickHouse",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 0.001s to ~4.1s
		},
		[]string{"table"},
	)

	CDCBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starschema_cdc_batch_size_rows",
			Help:    "Rows per flushed CDC batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 to 2048 rows
		},
		[]string{"table"},
	)

	DDLDeploysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starschema_ddl_deploys_total",
			Help: "Total number of DDL deploy runs",
		},
		[]string{"status"},
	)

	SampleQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starschema_sample_queries_total",
			Help: "Total number of OLTP sampling queries",
		},
		[]string{"status"},
	)
)
