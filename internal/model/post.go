package model

import (
	"slices"
	"strings"
	"time"
)

// Post is a photo post document.
type Post struct {
	ID        string       `json:"id"`
	CreatorID string       `json:"creator_id"`
	Creator   *UserSummary `json:"creator,omitempty"`
	Caption   string       `json:"caption"`
	ImageURL  string       `json:"image_url"`
	ImageID   string       `json:"image_id"`
	Location  string       `json:"location"`
	Tags      []string     `json:"tags"`
	Likes     []string     `json:"likes"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// LikedBy reports whether userID is in the post's likes.
func (p *Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// ParseTags turns a comma separated tag string into a tag list.
// All spaces are removed before splitting; an empty input yields no tags.
func ParseTags(raw string) []string {
	cleaned := strings.ReplaceAll(raw, " ", "")
	if cleaned == "" {
		return []string{}
	}
	return strings.Split(cleaned, ",")
}

// PostPage is one page of the infinite post feed.
type PostPage struct {
	Posts      []*Post `json:"posts"`
	NextCursor string  `json:"next_cursor,omitempty"`
}
