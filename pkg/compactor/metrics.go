// SPDX-License-Identifier: AGPL-3.0-only

package compactor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the file-list compactor's prometheus instrumentation,
// registered the same way pkg/compactor/compactor.go's
// newMultitenantCompactor registers its compactionRuns* metrics.
type Metrics struct {
	mergesStarted         prometheus.Counter
	mergesCompleted       prometheus.Counter
	mergesSkipped         prometheus.Counter
	mergesFailed          prometheus.Counter
	mergeUploadFailures   prometheus.Counter
	lockTimeouts          prometheus.Counter
	inputsDeleted         prometheus.Counter
	inputsDeleteFailed    prometheus.Counter
	lastSuccessTimestamp  prometheus.Gauge
	fileListOffsetSeconds prometheus.Gauge
	lockWaitSeconds       prometheus.Histogram
}

// NewMetrics registers and returns the file-list compactor's metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		mergesStarted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_compactor_merges_started_total",
			Help: "Total number of hour-merge attempts started.",
		}),
		mergesCompleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_compactor_merges_completed_total",
			Help: "Total number of hour merges that published a new manifest.",
		}),
		mergesSkipped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_compactor_merges_skipped_total",
			Help: "Total number of compact() calls that returned success without merging (lock held elsewhere, nothing to merge, streams not caught up).",
		}),
		mergesFailed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_compactor_merges_failed_total",
			Help: "Total number of hour merges aborted by a propagated error (e.g. a decode failure).",
		}),
		mergeUploadFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_compactor_merge_upload_failures_total",
			Help: "Total number of merged-manifest uploads that failed; inputs are retained for the next run.",
		}),
		lockTimeouts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_compactor_lock_timeouts_total",
			Help: "Total number of times acquiring the file-list compaction lock timed out.",
		}),
		inputsDeleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_compactor_inputs_deleted_total",
			Help: "Total number of input manifests deleted after a successful merge.",
		}),
		inputsDeleteFailed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filelistcore_compactor_inputs_delete_failed_total",
			Help: "Total number of input manifests that failed to delete after a successful merge.",
		}),
		lastSuccessTimestamp: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "filelistcore_compactor_last_successful_merge_timestamp_seconds",
			Help: "Unix timestamp of the last successful hour merge.",
		}),
		fileListOffsetSeconds: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "filelistcore_compactor_file_list_offset_seconds",
			Help: "The current global file-list compacted-through offset, as unix seconds.",
		}),
		lockWaitSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "filelistcore_compactor_lock_wait_seconds",
			Help:    "Time spent waiting to acquire the file-list compaction lock, per attempt.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
