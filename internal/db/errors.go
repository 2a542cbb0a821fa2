package db

import "errors"

// Domain-level database error sentinels.
var (
	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")

	// Content errors
	ErrContentNotFound = errors.New("content not found")

	// Content request errors
	ErrRequestNotFound   = errors.New("content request not found")
	ErrRequestNotPending = errors.New("content request has already been reviewed")
	ErrAlreadyPublished  = errors.New("content request was already published")

	// Message errors
	ErrMessageNotFound = errors.New("message not found")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")
)
