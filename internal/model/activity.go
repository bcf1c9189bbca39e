package model

import "time"

// ActivityRecord is a persisted post activity event.
// StreamID is the Redis stream entry ID and makes inserts idempotent.
type ActivityRecord struct {
	ID         string
	StreamID   string
	Type       string
	PostID     string
	UserID     string
	LikeCount  int
	OccurredAt time.Time
}

// PostActivity totals the persisted events of one post by event type.
type PostActivity struct {
	PostID string           `json:"post_id"`
	Counts map[string]int64 `json:"counts"`
}
