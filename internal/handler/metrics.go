package handler

import (
	"fmt"
	"net/http"

	"github.com/pictora/pictora/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "pictora_accounts_created_total %d\n", snap.AccountsCreated)
	writeMetric(w, "pictora_sessions_created_total %d\n", snap.SessionsCreated)
	writeMetric(w, "pictora_signin_failures_total %d\n", snap.SignInFailures)

	writeMetric(w, "pictora_post_cache_hits_total %d\n", snap.PostCacheHits)
	writeMetric(w, "pictora_post_cache_misses_total %d\n", snap.PostCacheMisses)
	writeMetric(w, "pictora_post_fetch_duration_seconds_count %d\n", snap.PostFetchDurationCount)
	writeMetric(w, "pictora_post_fetch_duration_seconds_sum %.6f\n", float64(snap.PostFetchDurationTotalNs)/1e9)

	writeMetric(w, "pictora_posts_created_total %d\n", snap.PostsCreated)
	writeMetric(w, "pictora_posts_updated_total %d\n", snap.PostsUpdated)
	writeMetric(w, "pictora_posts_deleted_total %d\n", snap.PostsDeleted)
	writeMetric(w, "pictora_posts_liked_total %d\n", snap.PostsLiked)
	writeMetric(w, "pictora_posts_saved_total %d\n", snap.PostsSaved)

	writeMetric(w, "pictora_files_uploaded_total %d\n", snap.FilesUploaded)
	writeMetric(w, "pictora_file_cleanups_total{status=\"success\"} %d\n", snap.FileCleanups)
	writeMetric(w, "pictora_file_cleanups_total{status=\"failed\"} %d\n", snap.FileCleanupsFailed)

	writeMetric(w, "pictora_activity_events_published_total{status=\"success\"} %d\n", snap.ActivityPublished)
	writeMetric(w, "pictora_activity_events_published_total{status=\"dropped\"} %d\n", snap.ActivityDropped)
	writeMetric(w, "pictora_activity_events_processed_total{status=\"success\"} %d\n", snap.ActivityProcessed)
	writeMetric(w, "pictora_activity_events_processed_total{status=\"failed\"} %d\n", snap.ActivityFailed)
	writeMetric(w, "pictora_activity_events_processed_total{status=\"dead_lettered\"} %d\n", snap.ActivityDeadLettered)
	writeMetric(w, "pictora_activity_queue_depth %d\n", snap.ActivityQueueDepth)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
