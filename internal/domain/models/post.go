package models

import "time"

type Post struct {
	ID        string
	OwnerID   string
	IsPublic  bool
	Content   string
	CreatedAt time.Time
	EditedAt  time.Time
}
