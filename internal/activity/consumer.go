package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pictora/pictora/internal/metrics"
	"github.com/pictora/pictora/internal/model"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "activity_consumers"

	// DeadLetterStreamKey holds entries that could not be decoded.
	DeadLetterStreamKey = "stream:activity:dlq"

	// DefaultBatchSize is the max events per batch.
	DefaultBatchSize = 200

	// DefaultBlockTimeout is how long to block waiting for entries.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultMaxRetries is the max attempts for storing a batch.
	DefaultMaxRetries = 3

	// DefaultClaimInterval is how often to scan pending entries.
	DefaultClaimInterval = 10 * time.Second

	// DefaultClaimIdle is the idle time before a pending entry is reclaimed.
	DefaultClaimIdle = 30 * time.Second

	// DefaultMetricsInterval is how often queue depth is refreshed.
	DefaultMetricsInterval = 5 * time.Second
)

// Store persists decoded activity.
type Store interface {
	InsertActivity(ctx context.Context, records []*model.ActivityRecord) error
}

// Consumer moves activity events from the Redis stream into the store.
type Consumer struct {
	redis           *redis.Client
	store           Store
	logger          *slog.Logger
	metrics         metrics.Recorder
	consumerID      string
	batchSize       int
	blockTimeout    time.Duration
	maxRetries      int
	retryBase       time.Duration
	claimInterval   time.Duration
	claimIdle       time.Duration
	metricsInterval time.Duration
	claimStartID    string
	lastClaim       time.Time
	lastMetrics     time.Time

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewConsumerID returns a consumer name unique to this process.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "pictora"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano())
}

// NewConsumer creates a stream consumer.
func NewConsumer(client *redis.Client, store Store, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Consumer {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Consumer{
		redis:           client,
		store:           store,
		logger:          logger.With("component", "activity.consumer", "consumer_id", consumerID),
		metrics:         recorder,
		consumerID:      consumerID,
		batchSize:       DefaultBatchSize,
		blockTimeout:    DefaultBlockTimeout,
		maxRetries:      DefaultMaxRetries,
		retryBase:       time.Second,
		claimInterval:   DefaultClaimInterval,
		claimIdle:       DefaultClaimIdle,
		metricsInterval: DefaultMetricsInterval,
		claimStartID:    "0-0",
	}
}

// SetBatchSize overrides the default batch size.
func (c *Consumer) SetBatchSize(size int) {
	if size > 0 {
		c.batchSize = size
	}
}

// SetBlockTimeout overrides the default blocking timeout.
func (c *Consumer) SetBlockTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.blockTimeout = timeout
	}
}

// Run consumes the stream until ctx is cancelled or Shutdown is called.
func (c *Consumer) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("consumer already started")
	}
	c.started = true
	c.done = make(chan struct{})
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	defer close(c.done)

	if err := c.ensureGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	c.logger.Info("activity consumer started")

	for {
		c.mu.Lock()
		draining := c.draining
		c.mu.Unlock()
		if draining {
			c.logger.Info("activity consumer draining, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			c.logger.Info("activity consumer stopping")
			return nil
		default:
		}

		if err := c.processOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("process error", "error", err)
			sleep(ctx, time.Second)
		}
	}
}

// Shutdown stops the consumer and waits for the in-flight batch.
// It matches server.ShutdownFunc.
func (c *Consumer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.draining = true
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		c.logger.Info("activity consumer shutdown complete")
		return nil
	case <-ctx.Done():
		c.logger.Warn("activity consumer shutdown timed out")
		return ctx.Err()
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

// processOnce handles one batch: reclaimed entries first, then new ones.
func (c *Consumer) processOnce(ctx context.Context) error {
	c.maybeUpdateQueueDepth(ctx)

	messages, err := c.maybeClaimPending(ctx)
	if err != nil {
		c.logger.Warn("failed to claim pending entries", "error", err)
	}
	if len(messages) == 0 {
		messages, err = c.readBatch(ctx)
		if err != nil {
			return err
		}
	}
	if len(messages) == 0 {
		return nil
	}

	records, ids := c.decode(ctx, messages)
	if len(records) > 0 {
		if err := c.storeWithRetry(ctx, records); err != nil {
			c.logger.Error("batch failed after retries", "batch_size", len(records), "error", err)
			// Left pending so a later claim retries it.
			return err
		}
	}

	return c.ack(ctx, ids)
}

func (c *Consumer) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := c.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: c.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(c.batchSize),
		Block:    c.blockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return streams[0].Messages, nil
}

func (c *Consumer) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if c.claimInterval <= 0 || c.claimIdle <= 0 {
		return nil, nil
	}
	if !c.lastClaim.IsZero() && time.Since(c.lastClaim) < c.claimInterval {
		return nil, nil
	}
	c.lastClaim = time.Now()

	messages, next, err := c.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: c.consumerID,
		MinIdle:  c.claimIdle,
		Start:    c.claimStartID,
		Count:    int64(c.batchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if next != "" {
		c.claimStartID = next
	}
	return messages, nil
}

func (c *Consumer) maybeUpdateQueueDepth(ctx context.Context) {
	if c.metricsInterval <= 0 {
		return
	}
	if !c.lastMetrics.IsZero() && time.Since(c.lastMetrics) < c.metricsInterval {
		return
	}
	c.lastMetrics = time.Now()

	groups, err := c.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("failed to read stream group info", "error", err)
		return
	}
	for _, g := range groups {
		if g.Name == ConsumerGroup {
			c.metrics.SetActivityQueueDepth(g.Pending + g.Lag)
			return
		}
	}
}

// decode turns stream entries into records. Undecodable entries are
// dead-lettered; every entry ID is returned for acknowledgement.
func (c *Consumer) decode(ctx context.Context, messages []redis.XMessage) ([]*model.ActivityRecord, []string) {
	records := make([]*model.ActivityRecord, 0, len(messages))
	ids := make([]string, 0, len(messages))

	for _, msg := range messages {
		ids = append(ids, msg.ID)

		payload, ok := msg.Values["payload"].(string)
		if !ok {
			c.deadLetter(ctx, msg, "invalid_format", "payload field missing or not a string")
			continue
		}
		event, err := Decode(payload)
		if err != nil {
			c.deadLetter(ctx, msg, "decode_error", err.Error())
			continue
		}

		records = append(records, ToRecord(msg.ID, event))
	}

	return records, ids
}

// ToRecord converts a stream entry into its stored form.
func ToRecord(streamID string, event Event) *model.ActivityRecord {
	return &model.ActivityRecord{
		ID:         ulid.Make().String(),
		StreamID:   streamID,
		Type:       string(event.Type),
		PostID:     event.PostID,
		UserID:     event.UserID,
		LikeCount:  event.LikeCount,
		OccurredAt: time.UnixMilli(event.OccurredAt).UTC(),
	}
}

func (c *Consumer) deadLetter(ctx context.Context, msg redis.XMessage, reason, detail string) {
	c.logger.Warn("dead-lettering activity entry",
		"message_id", msg.ID,
		"reason", reason,
		"detail", detail,
	)

	err := c.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"reason":           reason,
			"detail":           detail,
			"payload":          msg.Values["payload"],
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		c.logger.Error("failed to write dead-letter entry", "message_id", msg.ID, "error", err)
	}

	c.metrics.IncActivityProcessed("dead_lettered")
}

func (c *Consumer) storeWithRetry(ctx context.Context, records []*model.ActivityRecord) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		err := c.store.InsertActivity(ctx, records)
		if err == nil {
			c.logger.Info("activity batch stored",
				"events_count", len(records),
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
			)
			for range records {
				c.metrics.IncActivityProcessed("success")
			}
			return nil
		}

		lastErr = err
		if attempt == c.maxRetries {
			break
		}
		backoff := c.retryBase << attempt
		c.logger.Warn("activity batch failed, retrying",
			"attempt", attempt,
			"backoff_seconds", backoff.Seconds(),
			"error", err,
		)
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
	}

	for range records {
		c.metrics.IncActivityProcessed("failed")
	}
	return lastErr
}

func (c *Consumer) ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.redis.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

// sleep waits for d or until ctx is done. It reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
