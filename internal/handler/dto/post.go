package dto

// LikeRequest replaces the list of users who liked a post.
type LikeRequest struct {
	Likes []string `json:"likes"`
}

// SaveRequest represents the body for saving a post.
type SaveRequest struct {
	UserID string `json:"user_id"`
	PostID string `json:"post_id"`
}
