package model

import (
	"io"
	"time"
)

// File describes an object held in media storage.
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`

	// OwnerAccountID is the account that uploaded the file.
	OwnerAccountID string `json:"-"`
}

// Upload is an incoming file handed to the storage layer.
type Upload struct {
	Name           string
	ContentType    string
	Size           int64
	Body           io.Reader
	OwnerAccountID string
}

// PreviewGravity is the crop anchor encoded in preview URLs.
type PreviewGravity string

const (
	GravityCenter PreviewGravity = "center"
	GravityTop    PreviewGravity = "top"
	GravityBottom PreviewGravity = "bottom"
)

// PreviewOptions are the rendering hints carried by a preview URL.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity PreviewGravity
	Quality int
}

// DefaultPreview matches the feed's full-size preview.
var DefaultPreview = PreviewOptions{
	Width:   2000,
	Height:  2000,
	Gravity: GravityTop,
	Quality: 100,
}
