// Package activity appends post activity events to a Redis stream.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/pictora/pictora/internal/metrics"
)

const (
	// StreamKey is the Redis stream for post activity.
	StreamKey = "stream:activity"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// EventType names an activity.
type EventType string

const (
	EventPostCreated EventType = "post.created"
	EventPostLiked   EventType = "post.liked"
	EventPostSaved   EventType = "post.saved"
)

// Event is the compact record appended to the stream.
type Event struct {
	Type       EventType `json:"type"`
	PostID     string    `json:"pid"`
	UserID     string    `json:"uid,omitempty"`
	LikeCount  int       `json:"likes,omitempty"`
	OccurredAt int64     `json:"t"` // Unix milliseconds
}

// NewEvent stamps an event with the current time.
func NewEvent(typ EventType, postID, userID string) Event {
	return Event{
		Type:       typ,
		PostID:     postID,
		UserID:     userID,
		OccurredAt: time.Now().UnixMilli(),
	}
}

// Publisher enqueues activity events to a Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new activity publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "activity.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event Event) (string, error) {
	if err := Validate(event); err != nil {
		return "", err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"type":    string(event.Type),
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishAsync(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish activity event",
				"type", event.Type,
				"post_id", event.PostID,
				"error", err,
			)
			p.metrics.IncActivityPublished("dropped")
			return
		}

		p.logger.Debug("activity event published",
			"type", event.Type,
			"post_id", event.PostID,
			"stream_id", streamID,
		)
		p.metrics.IncActivityPublished("success")
	}()
}

// Decode parses a stream payload back into an event.
func Decode(payload string) (Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := Validate(event); err != nil {
		return Event{}, err
	}
	return event, nil
}
