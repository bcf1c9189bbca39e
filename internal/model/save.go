package model

import "time"

// Save records that a user bookmarked a post.
type Save struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Status is the acknowledgement returned by delete-style operations.
type Status struct {
	Status string `json:"status"`
}

// StatusOK is returned when a delete completed.
var StatusOK = Status{Status: "ok"}
