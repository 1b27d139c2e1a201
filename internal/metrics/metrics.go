// Package metrics exposes engine counters on the default prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts executed queries by lock mode and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litedb_queries_total",
			Help: "Total number of executed queries",
		},
		[]string{"mode", "status"},
	)
	// DocumentsLoaded counts full documents resolved by the loader
	// (key-only fast paths never increment this).
	DocumentsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "litedb_documents_loaded_total",
			Help: "Total number of documents loaded from storage",
		},
	)
	// KeyOnlyQueries counts queries answered from index keys alone.
	KeyOnlyQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "litedb_keyonly_queries_total",
			Help: "Total number of queries served without loading documents",
		},
	)
	// Safepoints counts cooperative checkpoints taken during enumeration.
	Safepoints = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "litedb_safepoints_total",
			Help: "Total number of safepoints invoked during query iteration",
		},
	)
	// OpenTransactions tracks currently open transactions.
	OpenTransactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "litedb_open_transactions",
			Help: "Number of currently open transactions",
		},
	)
	// CompactionsTotal counts background index compaction runs.
	CompactionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "litedb_index_compactions_total",
			Help: "Total number of background index compactions",
		},
	)
)
