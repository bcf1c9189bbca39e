package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pictora/pictora/internal/model"
)

// Common errors for save repository operations.
var (
	ErrSaveNotFound = errors.New("save not found")
	ErrAlreadySaved = errors.New("post already saved")
	// ErrSaveTarget means the user or the post referenced by a save does not exist.
	ErrSaveTarget = errors.New("save references unknown user or post")
)

// CreateSave records that a user saved a post.
func (r *Repository) CreateSave(ctx context.Context, save *model.Save) error {
	query := `
		INSERT INTO saves (id, user_id, post_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, save.ID, save.UserID, save.PostID, save.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrAlreadySaved
		case isForeignKeyViolation(err):
			return ErrSaveTarget
		}
		return fmt.Errorf("failed to create save: %w", err)
	}

	return nil
}

// GetSaveByID retrieves a save record.
func (r *Repository) GetSaveByID(ctx context.Context, id string) (*model.Save, error) {
	var save model.Save
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, post_id, created_at FROM saves WHERE id = $1`, id,
	).Scan(&save.ID, &save.UserID, &save.PostID, &save.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaveNotFound
		}
		return nil, fmt.Errorf("failed to get save by ID: %w", err)
	}
	return &save, nil
}

// DeleteSave removes a save record.
func (r *Repository) DeleteSave(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM saves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSaveNotFound
	}
	return nil
}
