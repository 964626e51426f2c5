package models

import "time"

type User struct {
	ID        string
	Nickname  string
	Email     string
	PassHash  []byte
	Rank      int32
	IsPrivate bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
