package domain

import "time"

// Topic is a discussion thread posted to a board.
type Topic struct {
	ID     TopicID
	Board  BoardID
	Author SubjectID

	Title  string
	Body   string
	Pinned bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a reply posted to a topic.
type Comment struct {
	ID     CommentID
	Topic  TopicID
	Author SubjectID

	Body string

	CreatedAt time.Time
}
