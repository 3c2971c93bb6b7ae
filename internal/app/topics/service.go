package topics

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/riverbend-community/community-api/internal/domain"
	"github.com/riverbend-community/community-api/internal/ports/out/boardrepo"
	clockport "github.com/riverbend-community/community-api/internal/ports/out/clock"
	"github.com/riverbend-community/community-api/internal/ports/out/topicrepo"
)

type CreateTopicInput struct {
	Title string
	Body  string
}

type AddCommentInput struct {
	Body string
}

type Service struct {
	repo   topicrepo.Repository
	boards boardrepo.Repository
	clk    clockport.Clock

	newTopicID   func() domain.TopicID
	newCommentID func() domain.CommentID
}

func NewService(repo topicrepo.Repository, boards boardrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:   repo,
		boards: boards,
		clk:    clk,
		newTopicID: func() domain.TopicID {
			return domain.TopicID(uuid.NewString())
		},
		newCommentID: func() domain.CommentID {
			return domain.CommentID(uuid.NewString())
		},
	}
}

func (s *Service) CreateTopic(ctx context.Context, board domain.BoardID, author domain.SubjectID, in CreateTopicInput) (domain.Topic, error) {
	title := domain.NormalizeTitle(in.Title)
	if title == "" {
		return domain.Topic{}, validationError("title", "must not be empty")
	}
	if strings.TrimSpace(in.Body) == "" {
		return domain.Topic{}, validationError("body", "must not be empty")
	}
	if _, err := s.boards.GetByID(ctx, board); err != nil {
		if errors.Is(err, boardrepo.ErrNotFound) {
			return domain.Topic{}, boardNotFoundError(board)
		}
		return domain.Topic{}, err
	}

	now := s.clk.Now()
	rec := topicrepo.Topic{
		ID:        s.newTopicID(),
		Board:     board,
		Author:    author,
		Title:     title,
		Body:      in.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, topicrepo.ErrBoardNotFound) {
			return domain.Topic{}, boardNotFoundError(board)
		}
		return domain.Topic{}, err
	}
	return topicToDomain(rec), nil
}

func (s *Service) GetTopic(ctx context.Context, id domain.TopicID) (domain.Topic, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, topicrepo.ErrNotFound) {
			return domain.Topic{}, topicNotFoundError(id)
		}
		return domain.Topic{}, err
	}
	return topicToDomain(rec), nil
}

func (s *Service) ListTopics(ctx context.Context, board domain.BoardID) ([]domain.Topic, error) {
	if _, err := s.boards.GetByID(ctx, board); err != nil {
		if errors.Is(err, boardrepo.ErrNotFound) {
			return nil, boardNotFoundError(board)
		}
		return nil, err
	}
	recs, err := s.repo.ListByBoard(ctx, board)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Topic, 0, len(recs))
	for _, rec := range recs {
		out = append(out, topicToDomain(rec))
	}
	return out, nil
}

func (s *Service) AddComment(ctx context.Context, topic domain.TopicID, author domain.SubjectID, in AddCommentInput) (domain.Comment, error) {
	if strings.TrimSpace(in.Body) == "" {
		return domain.Comment{}, validationError("body", "must not be empty")
	}
	if _, err := s.repo.GetByID(ctx, topic); err != nil {
		if errors.Is(err, topicrepo.ErrNotFound) {
			return domain.Comment{}, topicNotFoundError(topic)
		}
		return domain.Comment{}, err
	}

	rec := topicrepo.Comment{
		ID:        s.newCommentID(),
		Topic:     topic,
		Author:    author,
		Body:      in.Body,
		CreatedAt: s.clk.Now(),
	}
	if err := s.repo.AddComment(ctx, rec); err != nil {
		return domain.Comment{}, err
	}
	return commentToDomain(rec), nil
}

func (s *Service) ListComments(ctx context.Context, topic domain.TopicID) ([]domain.Comment, error) {
	if _, err := s.repo.GetByID(ctx, topic); err != nil {
		if errors.Is(err, topicrepo.ErrNotFound) {
			return nil, topicNotFoundError(topic)
		}
		return nil, err
	}
	recs, err := s.repo.ListComments(ctx, topic)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Comment, 0, len(recs))
	for _, rec := range recs {
		out = append(out, commentToDomain(rec))
	}
	return out, nil
}

func topicToDomain(rec topicrepo.Topic) domain.Topic {
	return domain.Topic{
		ID:        rec.ID,
		Board:     rec.Board,
		Author:    rec.Author,
		Title:     rec.Title,
		Body:      rec.Body,
		Pinned:    rec.Pinned,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func commentToDomain(rec topicrepo.Comment) domain.Comment {
	return domain.Comment{
		ID:        rec.ID,
		Topic:     rec.Topic,
		Author:    rec.Author,
		Body:      rec.Body,
		CreatedAt: rec.CreatedAt,
	}
}

func topicNotFoundError(id domain.TopicID) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    "TOPIC_NOT_FOUND",
		Message: "No topic exists with this id.",
		Details: map[string]any{"topicId": string(id)},
	}
}

func boardNotFoundError(id domain.BoardID) *Error {
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
		Message: "invalid topic input",
		Details: map[string]any{field: msg},
	}
}
