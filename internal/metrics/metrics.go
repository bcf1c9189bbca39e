// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account and session metrics
	IncAccountCreated()
	IncSessionCreated()
	IncSignInFailed()

	// Post read path metrics
	IncPostCacheHit()
	IncPostCacheMiss()
	ObservePostFetchDuration(duration time.Duration)

	// Post management metrics
	IncPostCreated()
	IncPostUpdated()
	IncPostDeleted()
	IncPostLiked()
	IncPostSaved()

	// Media metrics
	IncFileUploaded()
	IncFileCleanup(status string) // status: "success" or "failed"

	// Activity stream metrics
	IncActivityPublished(status string) // status: "success" or "dropped"
	IncActivityProcessed(status string) // status: "success", "failed" or "dead_lettered"
	SetActivityQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
