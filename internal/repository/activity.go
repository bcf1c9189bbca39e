package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pictora/pictora/internal/model"
)

// InsertActivity stores a batch of activity events.
// Events already stored under the same stream ID are skipped.
func (r *Repository) InsertActivity(ctx context.Context, records []*model.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO activity_events (
			id, stream_id, type, post_id, user_id, like_count, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (stream_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.ID,
			rec.StreamID,
			rec.Type,
			rec.PostID,
			nullableString(rec.UserID),
			rec.LikeCount,
			rec.OccurredAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert activity %d: %w", i, err)
		}
	}

	return nil
}

// CountPostActivity returns how many events of each type a post has.
func (r *Repository) CountPostActivity(ctx context.Context, postID string) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT type, COUNT(*) FROM activity_events
		WHERE post_id = $1
		GROUP BY type
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to count activity: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
