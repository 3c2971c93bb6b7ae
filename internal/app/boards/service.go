package boards

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/riverbend-community/community-api/internal/domain"
	"github.com/riverbend-community/community-api/internal/ports/out/boardrepo"
	clockport "github.com/riverbend-community/community-api/internal/ports/out/clock"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type Service struct {
	repo boardrepo.Repository
	clk  clockport.Clock

	newBoardID func() domain.BoardID
}

func NewService(repo boardrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo: repo,
		clk:  clk,
		newBoardID: func() domain.BoardID {
			return domain.BoardID(uuid.NewString())
		},
	}
}

func (s *Service) CreateBoard(ctx context.Context, in CreateBoardInput) (domain.Board, error) {
	title := domain.NormalizeTitle(in.Title)
	if title == "" {
		return domain.Board{}, validationError("title", "must not be empty")
	}
	if !slugPattern.MatchString(in.Slug) {
		return domain.Board{}, validationError("slug", "must be lowercase letters, digits, and hyphens")
	}

	now := s.clk.Now()
	rec := boardrepo.Board{
		ID:          s.newBoardID(),
		Slug:        in.Slug,
		Title:       title,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, boardrepo.ErrSlugTaken) {
			return domain.Board{}, &Error{
				Status:  http.StatusConflict,
				Code:    "BOARD_SLUG_TAKEN",
				Message: "A board already exists with this slug.",
				Details: map[string]any{"slug": in.Slug},
			}
		}
		return domain.Board{}, err
	}
	return toDomain(rec), nil
}

func (s *Service) GetBoard(ctx context.Context, id domain.BoardID) (domain.Board, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, boardrepo.ErrNotFound) {
			return domain.Board{}, notFoundError(id)
		}
		return domain.Board{}, err
	}
	return toDomain(rec), nil
}

func (s *Service) ListBoards(ctx context.Context) ([]domain.Board, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Board, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomain(rec))
	}
	return out, nil
}

func (s *Service) UpdateBoard(ctx context.Context, id domain.BoardID, in UpdateBoardInput) (domain.Board, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, boardrepo.ErrNotFound) {
			return domain.Board{}, notFoundError(id)
		}
		return domain.Board{}, err
	}

	if in.Title != nil {
		title := domain.NormalizeTitle(*in.Title)
		if title == "" {
			return domain.Board{}, validationError("title", "must not be empty")
		}
		rec.Title = title
	}
	if in.Description != nil {
		rec.Description = in.Description
	}
	rec.UpdatedAt = s.clk.Now()

	if err := s.repo.Update(ctx, rec); err != nil {
		return domain.Board{}, err
	}
	return toDomain(rec), nil
}

func (s *Service) DeleteBoard(ctx context.Context, id domain.BoardID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, boardrepo.ErrNotFound) {
			return notFoundError(id)
		}
		return err
	}
	return nil
}

func toDomain(rec boardrepo.Board) domain.Board {
	return domain.Board{
		ID:          rec.ID,
		Slug:        rec.Slug,
		Title:       rec.Title,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func notFoundError(id domain.BoardID) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    "BOARD_NOT_FOUND",
		Message: "No board exists with this id.",
		Details: map[string]any{"boardId": string(id)},
	}
}

func validationError(field, msg string) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    "VALIDATION_ERROR",
		Message: "invalid board input",
		Details: map[string]any{field: msg},
	}
}
