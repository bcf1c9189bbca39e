package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AccountsCreated uint64
	SessionsCreated uint64
	SignInFailures  uint64

	PostCacheHits            uint64
	PostCacheMisses          uint64
	PostFetchDurationCount   uint64
	PostFetchDurationTotalNs int64

	PostsCreated uint64
	PostsUpdated uint64
	PostsDeleted uint64
	PostsLiked   uint64
	PostsSaved   uint64

	FilesUploaded      uint64
	FileCleanups       uint64
	FileCleanupsFailed uint64

	ActivityPublished    uint64
	ActivityDropped      uint64
	ActivityProcessed    uint64
	ActivityFailed       uint64
	ActivityDeadLettered uint64
	ActivityQueueDepth   int64
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics endpoint.
type InMemoryRecorder struct {
	accountsCreated atomic.Uint64
	sessionsCreated atomic.Uint64
	signInFailures  atomic.Uint64

	postCacheHits            atomic.Uint64
	postCacheMisses          atomic.Uint64
	postFetchDurationCount   atomic.Uint64
	postFetchDurationTotalNs atomic.Int64

	postsCreated atomic.Uint64
	postsUpdated atomic.Uint64
	postsDeleted atomic.Uint64
	postsLiked   atomic.Uint64
	postsSaved   atomic.Uint64

	filesUploaded      atomic.Uint64
	fileCleanups       atomic.Uint64
	fileCleanupsFailed atomic.Uint64

	activityPublished    atomic.Uint64
	activityDropped      atomic.Uint64
	activityProcessed    atomic.Uint64
	activityFailed       atomic.Uint64
	activityDeadLettered atomic.Uint64
	activityQueueDepth   atomic.Int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		AccountsCreated:          m.accountsCreated.Load(),
		SessionsCreated:          m.sessionsCreated.Load(),
		SignInFailures:           m.signInFailures.Load(),
		PostCacheHits:            m.postCacheHits.Load(),
		PostCacheMisses:          m.postCacheMisses.Load(),
		PostFetchDurationCount:   m.postFetchDurationCount.Load(),
		PostFetchDurationTotalNs: m.postFetchDurationTotalNs.Load(),
		PostsCreated:             m.postsCreated.Load(),
		PostsUpdated:             m.postsUpdated.Load(),
		PostsDeleted:             m.postsDeleted.Load(),
		PostsLiked:               m.postsLiked.Load(),
		PostsSaved:               m.postsSaved.Load(),
		FilesUploaded:            m.filesUploaded.Load(),
		FileCleanups:             m.fileCleanups.Load(),
		FileCleanupsFailed:       m.fileCleanupsFailed.Load(),
		ActivityPublished:        m.activityPublished.Load(),
		ActivityDropped:          m.activityDropped.Load(),
		ActivityProcessed:        m.activityProcessed.Load(),
		ActivityFailed:           m.activityFailed.Load(),
		ActivityDeadLettered:     m.activityDeadLettered.Load(),
		ActivityQueueDepth:       m.activityQueueDepth.Load(),
	}
}

// IncAccountCreated increments the account created counter.
func (m *InMemoryRecorder) IncAccountCreated() { m.accountsCreated.Add(1) }

// IncSessionCreated increments the session created counter.
func (m *InMemoryRecorder) IncSessionCreated() { m.sessionsCreated.Add(1) }

// IncSignInFailed increments the failed sign-in counter.
func (m *InMemoryRecorder) IncSignInFailed() { m.signInFailures.Add(1) }

// IncPostCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncPostCacheHit() { m.postCacheHits.Add(1) }

// IncPostCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncPostCacheMiss() { m.postCacheMisses.Add(1) }

// ObservePostFetchDuration records how long a post lookup took.
func (m *InMemoryRecorder) ObservePostFetchDuration(duration time.Duration) {
	m.postFetchDurationCount.Add(1)
	m.postFetchDurationTotalNs.Add(duration.Nanoseconds())
}

// IncPostCreated increments post created counter.
func (m *InMemoryRecorder) IncPostCreated() { m.postsCreated.Add(1) }

// IncPostUpdated increments post updated counter.
func (m *InMemoryRecorder) IncPostUpdated() { m.postsUpdated.Add(1) }

// IncPostDeleted increments post deleted counter.
func (m *InMemoryRecorder) IncPostDeleted() { m.postsDeleted.Add(1) }

// IncPostLiked increments the likes update counter.
func (m *InMemoryRecorder) IncPostLiked() { m.postsLiked.Add(1) }

// IncPostSaved increments the save counter.
func (m *InMemoryRecorder) IncPostSaved() { m.postsSaved.Add(1) }

// IncFileUploaded increments the upload counter.
func (m *InMemoryRecorder) IncFileUploaded() { m.filesUploaded.Add(1) }

// IncFileCleanup counts rollback deletes of uploaded files.
func (m *InMemoryRecorder) IncFileCleanup(status string) {
	if status == "failed" {
		m.fileCleanupsFailed.Add(1)
		return
	}
	m.fileCleanups.Add(1)
}

// IncActivityPublished counts activity stream publishes.
func (m *InMemoryRecorder) IncActivityPublished(status string) {
	if status == "dropped" {
		m.activityDropped.Add(1)
		return
	}
	m.activityPublished.Add(1)
}

// IncActivityProcessed counts events handled by the activity consumer.
func (m *InMemoryRecorder) IncActivityProcessed(status string) {
	switch status {
	case "failed":
		m.activityFailed.Add(1)
	case "dead_lettered":
		m.activityDeadLettered.Add(1)
	default:
		m.activityProcessed.Add(1)
	}
}

// SetActivityQueueDepth records pending plus unread stream entries.
func (m *InMemoryRecorder) SetActivityQueueDepth(depth int64) { m.activityQueueDepth.Store(depth) }
