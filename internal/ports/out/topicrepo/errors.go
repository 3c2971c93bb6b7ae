package topicrepo

import "errors"

var (
	// ErrNotFound indicates the requested topic does not exist.
	ErrNotFound = errors.New("topic not found")

	// ErrBoardNotFound indicates the topic references a board that does not exist.
	ErrBoardNotFound = errors.New("topic board not found")

	// ErrAlreadyExists indicates a topic already exists with the provided ID.
	ErrAlreadyExists = errors.New("topic already exists")
)
