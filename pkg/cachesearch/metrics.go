package cachesearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the cache searcher's prometheus instrumentation,
// registered the same way pkg/compactor.Metrics registers the
// compactor's counters.
type Metrics struct {
	filesMatched    prometheus.Counter
	bytesScanned    prometheus.Counter
	searchesStarted prometheus.Counter
	searching       prometheus.GaugeFunc
}

// NewMetrics registers and returns the cache searcher's metrics.
// searching reports the current value of the process-wide searching
// indicator (component I) so it can be scraped alongside the counters
// below instead of only polled in-process via IsSearching.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		searchesStarted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_cachesearch_searches_started_total",
			Help: "Total number of cache search calls started.",
		}),
		filesMatched: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_cachesearch_files_matched_total",
			Help: "Total number of write-ahead files matched by a cache search predicate.",
		}),
		bytesScanned: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_cachesearch_bytes_scanned_total",
			Help: "Total number of bytes in write-ahead files handed to the SQL executor.",
		}),
		searching: promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
			Name: "filelistcore_cachesearch_searching",
			Help: "Number of cache searches currently in flight in this process.",
		}, func() float64 {
			return float64(searching.Load())
		}),
	}
}
