package domain

import "time"

// Board is the domain representation of a discussion board.
type Board struct {
	ID   BoardID
	Slug string

	Title       string
	Description *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
