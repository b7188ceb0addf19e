package sql

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-evmbridge/metrics"
)

const subsystem = "database"

var (
	queryDuration = metrics.NewHistogramWithBuckets(
		"query_duration",
		subsystem,
		"Duration of the query in nanoseconds",
		[]string{"kind"},
		prometheus.ExponentialBuckets(100_000, 2, 20),
	)
	connWaitLatency = metrics.NewHistogramWithBuckets(
		"conn_wait_latency",
		subsystem,
		"Time spent waiting for a pooled connection in seconds",
		[]string{},
		prometheus.ExponentialBuckets(0.00001, 2, 20),
	).WithLabelValues()
)

// queryKind keeps label cardinality bounded by the statement verb.
func queryKind(query string) string {
	query = strings.TrimSpace(query)
	if i := strings.IndexAny(query, " \n\t"); i > 0 {
		query = query[:i]
	}
	return strings.ToLower(query)
}
