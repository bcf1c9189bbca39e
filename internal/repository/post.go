package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pictora/pictora/internal/model"
)

// Common errors for post repository operations.
var (
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// PostOrder selects the timestamp a post listing is sorted by.
type PostOrder string

const (
	OrderByCreated PostOrder = "created_at"
	OrderByUpdated PostOrder = "updated_at"
)

// postSelect joins the creator excerpt onto every post row.
const postSelect = `
	SELECT p.id, p.creator_id, p.caption, p.image_url, p.image_id, p.location, p.tags, p.likes,
	       p.created_at, p.updated_at,
	       u.id, u.name, u.username, u.image_url
	FROM posts p
	JOIN users u ON u.id = p.creator_id
`

// CreatePost inserts a new post document.
func (r *Repository) CreatePost(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (id, creator_id, caption, image_url, image_id, location, tags, likes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.CreatorID,
		post.Caption,
		post.ImageURL,
		post.ImageID,
		post.Location,
		nonNil(post.Tags),
		nonNil(post.Likes),
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetPostByID retrieves a post and its creator by post ID.
func (r *Repository) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	query := postSelect + ` WHERE p.id = $1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}
	return post, nil
}

// UpdatePost writes a post's editable fields and bumps updated_at.
func (r *Repository) UpdatePost(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET caption = $2, image_url = $3, image_id = $4, location = $5, tags = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Caption,
		post.ImageURL,
		post.ImageID,
		post.Location,
		nonNil(post.Tags),
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	return nil
}

// SetPostLikes replaces the post's likes with the given user IDs.
// updated_at is left untouched so likes do not reorder the feed.
func (r *Repository) SetPostLikes(ctx context.Context, id string, likes []string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE posts SET likes = $2 WHERE id = $1`,
		id, nonNil(likes),
	)
	if err != nil {
		return fmt.Errorf("failed to set post likes: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a post document. Saves cascade.
func (r *Repository) DeletePost(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ListPosts returns up to limit posts ordered newest first by order.
// When afterID is set, only posts that sort strictly after that post are returned.
func (r *Repository) ListPosts(ctx context.Context, order PostOrder, afterID string, limit int) ([]*model.Post, error) {
	if order != OrderByCreated && order != OrderByUpdated {
		order = OrderByCreated
	}
	col := "p." + string(order)

	query := postSelect
	args := []any{}
	argIndex := 1

	if afterID != "" {
		query += fmt.Sprintf(
			` WHERE (%s, p.id) < (SELECT c.%s, c.id FROM posts c WHERE c.id = $%d)`,
			col, string(order), argIndex,
		)
		args = append(args, afterID)
		argIndex++

		exists, err := r.postExists(ctx, afterID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrInvalidCursor
		}
	}

	query += fmt.Sprintf(` ORDER BY %s DESC, p.id DESC LIMIT $%d`, col, argIndex)
	args = append(args, limit)

	return r.queryPosts(ctx, query, args...)
}

// SearchPosts runs a full-text match against post captions.
func (r *Repository) SearchPosts(ctx context.Context, term string, limit int) ([]*model.Post, error) {
	query := postSelect + `
		WHERE to_tsvector('simple', p.caption) @@ plainto_tsquery('simple', $1)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2
	`
	return r.queryPosts(ctx, query, term, limit)
}

func (r *Repository) postExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

func (r *Repository) queryPosts(ctx context.Context, query string, args ...any) ([]*model.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

// scanPost reads one postSelect row. The text[] columns arrive in pgx's
// binary array format and must be scanned into native slices.
func scanPost(row pgx.Row) (*model.Post, error) {
	var post model.Post
	var tags, likes []string
	creator := &model.UserSummary{}

	err := row.Scan(
		&post.ID,
		&post.CreatorID,
		&post.Caption,
		&post.ImageURL,
		&post.ImageID,
		&post.Location,
		&tags,
		&likes,
		&post.CreatedAt,
		&post.UpdatedAt,
		&creator.ID,
		&creator.Name,
		&creator.Username,
		&creator.ImageURL,
	)
	if err != nil {
		return nil, err
	}

	post.Tags = nonNil(tags)
	post.Likes = nonNil(likes)
	post.Creator = creator
	return &post, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
