package boardrepo

import "errors"

var (
	// ErrNotFound indicates the requested board does not exist.
	ErrNotFound = errors.New("board not found")

	// ErrSlugTaken indicates a board already exists with the provided slug.
	ErrSlugTaken = errors.New("board slug already taken")

	// ErrAlreadyExists indicates a board already exists with the provided ID.
	ErrAlreadyExists = errors.New("board already exists")
)
