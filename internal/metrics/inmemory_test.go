package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncAccountCreated()
	m.IncSessionCreated()
	m.IncSessionCreated()
	m.IncSignInFailed()
	m.IncPostCacheHit()
	m.IncPostCacheMiss()
	m.ObservePostFetchDuration(3 * time.Millisecond)
	m.ObservePostFetchDuration(2 * time.Millisecond)
	m.IncPostCreated()
	m.IncPostUpdated()
	m.IncPostDeleted()
	m.IncPostLiked()
	m.IncPostSaved()
	m.IncFileUploaded()
	m.IncFileCleanup("success")
	m.IncFileCleanup("failed")
	m.IncActivityPublished("success")
	m.IncActivityPublished("dropped")
	m.IncActivityPublished("dropped")
	m.IncActivityProcessed("success")
	m.IncActivityProcessed("success")
	m.IncActivityProcessed("failed")
	m.IncActivityProcessed("dead_lettered")
	m.SetActivityQueueDepth(7)

	snap := m.Snapshot()

	tests := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"accounts", snap.AccountsCreated, 1},
		{"sessions", snap.SessionsCreated, 2},
		{"sign-in failures", snap.SignInFailures, 1},
		{"cache hits", snap.PostCacheHits, 1},
		{"cache misses", snap.PostCacheMisses, 1},
		{"fetch count", snap.PostFetchDurationCount, 2},
		{"created", snap.PostsCreated, 1},
		{"updated", snap.PostsUpdated, 1},
		{"deleted", snap.PostsDeleted, 1},
		{"liked", snap.PostsLiked, 1},
		{"saved", snap.PostsSaved, 1},
		{"uploads", snap.FilesUploaded, 1},
		{"cleanups", snap.FileCleanups, 1},
		{"cleanups failed", snap.FileCleanupsFailed, 1},
		{"activity published", snap.ActivityPublished, 1},
		{"activity dropped", snap.ActivityDropped, 2},
		{"activity processed", snap.ActivityProcessed, 2},
		{"activity failed", snap.ActivityFailed, 1},
		{"activity dead lettered", snap.ActivityDeadLettered, 1},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}

	if snap.ActivityQueueDepth != 7 {
		t.Errorf("activity queue depth = %d, want 7", snap.ActivityQueueDepth)
	}

	if snap.PostFetchDurationTotalNs != (5 * time.Millisecond).Nanoseconds() {
		t.Errorf("fetch duration total = %d, want %d", snap.PostFetchDurationTotalNs, (5 * time.Millisecond).Nanoseconds())
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncPostCreated()
		}()
	}
	wg.Wait()

	if got := m.Snapshot().PostsCreated; got != 50 {
		t.Errorf("PostsCreated = %d, want 50", got)
	}
}

func TestNoopRecorder_ImplementsRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncPostCreated()
	r.IncActivityPublished("dropped")

	var _ Recorder = NewInMemory()
	var _ Snapshotter = NewInMemory()
}
