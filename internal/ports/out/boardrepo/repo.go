package boardrepo

import (
	"context"
	"time"

	"github.com/riverbend-community/community-api/internal/domain"
)

// Board is the persistence shape used by the board repository.
// It's used as an internal record, not an HTTP DTO.
type Board struct {
	ID   domain.BoardID
	Slug string

	Title       string
	Description *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted boards.
//
// List returns boards ordered by Title ascending to keep behavior deterministic.
type Repository interface {
	Create(ctx context.Context, b Board) error
	Update(ctx context.Context, b Board) error
	Delete(ctx context.Context, id domain.BoardID) error

	GetByID(ctx context.Context, id domain.BoardID) (Board, error)
	GetBySlug(ctx context.Context, slug string) (Board, error)

	List(ctx context.Context) ([]Board, error)
}
