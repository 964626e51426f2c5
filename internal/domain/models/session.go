package models

import "time"

// Session pairs a short-lived access token with the long-lived refresh token
// that can rotate it. The refresh token never changes for the life of the
// session; the access token is replaced on every refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	OwnerID      string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}
