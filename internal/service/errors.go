// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrUnauthenticated    = errors.New("session is missing, invalid or expired")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrSaveNotFound       = errors.New("save not found")
	ErrAlreadySaved       = errors.New("post already saved")
	ErrFileNotFound       = errors.New("file not found")
	ErrFileRequired       = errors.New("file is required")
	ErrMissingIdentifier  = errors.New("required identifier is missing")
	ErrForbidden          = errors.New("not allowed to modify this resource")
	ErrInvalidCursor      = errors.New("invalid pagination cursor")
	ErrImageMismatch      = errors.New("image does not belong to this resource")
	ErrEmptySearch        = errors.New("search term is required")
)
