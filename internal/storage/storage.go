package storage

import "errors"

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrPostNotFound    = errors.New("post not found")
	// ErrAccessTokenTaken reports a unique-constraint violation on the access
	// token column. Conflicts on the refresh token never surface: the session
	// upsert resolves them as in-place updates.
	ErrAccessTokenTaken = errors.New("access token already taken")
)
