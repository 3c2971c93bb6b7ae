package topicrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/riverbend-community/community-api/internal/adapters/postgres"
	"github.com/riverbend-community/community-api/internal/domain"
	"github.com/riverbend-community/community-api/internal/ports/out/topicrepo"
)

// Repo is a Postgres implementation of topicrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, t topicrepo.Topic) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid topic id: %w", err)
	}
	boardID, err := uuid.Parse(string(t.Board))
	if err != nil {
		return topicrepo.ErrBoardNotFound
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO topics (id, board_id, author_sub, title, body, pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id,
		boardID,
		string(t.Author),
		t.Title,
		t.Body,
		t.Pinned,
		t.CreatedAt.UTC(),
		t.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok {
			switch pe.Code {
			case postgres.UniqueViolationCode:
				return topicrepo.ErrAlreadyExists
			case postgres.ForeignKeyViolationCode:
				return topicrepo.ErrBoardNotFound
			}
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, topicID domain.TopicID) (topicrepo.Topic, error) {
	if r.pool == nil {
		return topicrepo.Topic{}, errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(topicID))
	if err != nil {
		return topicrepo.Topic{}, topicrepo.ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
		SELECT id, board_id, author_sub, title, body, pinned, created_at, updated_at
		FROM topics
		WHERE id = $1
	`, id)
	t, err := scanTopic(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return topicrepo.Topic{}, topicrepo.ErrNotFound
		}
		return topicrepo.Topic{}, err
	}
	return t, nil
}

func (r *Repo) ListByBoard(ctx context.Context, board domain.BoardID) ([]topicrepo.Topic, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	boardID, err := uuid.Parse(string(board))
	if err != nil {
		return []topicrepo.Topic{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, board_id, author_sub, title, body, pinned, created_at, updated_at
		FROM topics
		WHERE board_id = $1
		ORDER BY pinned DESC, created_at DESC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]topicrepo.Topic, 0)
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) AddComment(ctx context.Context, c topicrepo.Comment) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(c.ID))
	if err != nil {
		return fmt.Errorf("invalid comment id: %w", err)
	}
	topicID, err := uuid.Parse(string(c.Topic))
	if err != nil {
		return topicrepo.ErrNotFound
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO comments (id, topic_id, author_sub, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		id,
		topicID,
		string(c.Author),
		c.Body,
		c.CreatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
			return topicrepo.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *Repo) ListComments(ctx context.Context, topic domain.TopicID) ([]topicrepo.Comment, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	topicID, err := uuid.Parse(string(topic))
	if err != nil {
		return []topicrepo.Comment{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, topic_id, author_sub, body, created_at
		FROM comments
		WHERE topic_id = $1
		ORDER BY created_at ASC
	`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]topicrepo.Comment, 0)
	for rows.Next() {
		var (
			id      uuid.UUID
			topicDB uuid.UUID
			c       topicrepo.Comment
			author  string
		)
		if err := rows.Scan(&id, &topicDB, &author, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.ID = domain.CommentID(id.String())
		c.Topic = domain.TopicID(topicDB.String())
		c.Author = domain.SubjectID(author)
		c.CreatedAt = c.CreatedAt.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanTopic(row pgx.Row) (topicrepo.Topic, error) {
	var (
		id      uuid.UUID
		boardID uuid.UUID
		author  string
		t       topicrepo.Topic
	)
	if err := row.Scan(&id, &boardID, &author, &t.Title, &t.Body, &t.Pinned, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return topicrepo.Topic{}, err
	}
	t.ID = domain.TopicID(id.String())
	t.Board = domain.BoardID(boardID.String())
	t.Author = domain.SubjectID(author)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}
