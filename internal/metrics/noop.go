package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAccountCreated is a no-op.
func (n *NoopRecorder) IncAccountCreated() {}

// IncSessionCreated is a no-op.
func (n *NoopRecorder) IncSessionCreated() {}

// IncSignInFailed is a no-op.
func (n *NoopRecorder) IncSignInFailed() {}

// IncPostCacheHit is a no-op.
func (n *NoopRecorder) IncPostCacheHit() {}

// IncPostCacheMiss is a no-op.
func (n *NoopRecorder) IncPostCacheMiss() {}

// ObservePostFetchDuration is a no-op.
func (n *NoopRecorder) ObservePostFetchDuration(duration time.Duration) {}

// IncPostCreated is a no-op.
func (n *NoopRecorder) IncPostCreated() {}

// IncPostUpdated is a no-op.
func (n *NoopRecorder) IncPostUpdated() {}

// IncPostDeleted is a no-op.
func (n *NoopRecorder) IncPostDeleted() {}

// IncPostLiked is a no-op.
func (n *NoopRecorder) IncPostLiked() {}

// IncPostSaved is a no-op.
func (n *NoopRecorder) IncPostSaved() {}

// IncFileUploaded is a no-op.
func (n *NoopRecorder) IncFileUploaded() {}

// IncFileCleanup is a no-op.
func (n *NoopRecorder) IncFileCleanup(status string) {}

// IncActivityPublished is a no-op.
func (n *NoopRecorder) IncActivityPublished(status string) {}

// IncActivityProcessed is a no-op.
func (n *NoopRecorder) IncActivityProcessed(status string) {}

// SetActivityQueueDepth is a no-op.
func (n *NoopRecorder) SetActivityQueueDepth(depth int64) {}
