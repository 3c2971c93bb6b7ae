package topicrepo

import (
	"context"
	"time"

	"github.com/riverbend-community/community-api/internal/domain"
)

// Topic is the persistence shape used by the topic repository.
type Topic struct {
	ID     domain.TopicID
	Board  domain.BoardID
	Author domain.SubjectID

	Title  string
	Body   string
	Pinned bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is the persistence shape for a reply on a topic.
type Comment struct {
	ID     domain.CommentID
	Topic  domain.TopicID
	Author domain.SubjectID

	Body string

	CreatedAt time.Time
}

// Repository provides access to persisted topics and their comments.
//
// Ordering expectations: ListByBoard returns pinned topics first, then by
// CreatedAt descending; ListComments returns comments by CreatedAt ascending.
type Repository interface {
	Create(ctx context.Context, t Topic) error
	GetByID(ctx context.Context, id domain.TopicID) (Topic, error)
	ListByBoard(ctx context.Context, board domain.BoardID) ([]Topic, error)

	AddComment(ctx context.Context, c Comment) error
	ListComments(ctx context.Context, topic domain.TopicID) ([]Comment, error)
}
