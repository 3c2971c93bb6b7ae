package boardrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/riverbend-community/community-api/internal/adapters/postgres"
	"github.com/riverbend-community/community-api/internal/domain"
	"github.com/riverbend-community/community-api/internal/ports/out/boardrepo"
)

// Repo is a Postgres implementation of boardrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, b boardrepo.Board) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(b.ID))
	if err != nil {
		return fmt.Errorf("invalid board id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO boards (id, slug, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		id,
		b.Slug,
		b.Title,
		b.Description,
		b.CreatedAt.UTC(),
		b.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "boards_slug_unique":
				return boardrepo.ErrSlugTaken
			default:
				return boardrepo.ErrAlreadyExists
			}
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, b boardrepo.Board) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(b.ID))
	if err != nil {
		return fmt.Errorf("invalid board id: %w", err)
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE boards
		SET title = $2,
		    description = $3,
		    updated_at = $4
		WHERE id = $1
	`,
		id,
		b.Title,
		b.Description,
		b.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return boardrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, boardID domain.BoardID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(boardID))
	if err != nil {
		return boardrepo.ErrNotFound
	}

	ct, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return boardrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, boardID domain.BoardID) (boardrepo.Board, error) {
	if r.pool == nil {
		return boardrepo.Board{}, errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(boardID))
	if err != nil {
		return boardrepo.Board{}, boardrepo.ErrNotFound
	}
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (boardrepo.Board, error) {
	if r.pool == nil {
		return boardrepo.Board{}, errors.New("nil postgres pool")
	}
	return r.get(ctx, `WHERE slug = $1`, slug)
}

func (r *Repo) get(ctx context.Context, where string, arg any) (boardrepo.Board, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slug, title, description, created_at, updated_at
		FROM boards
	`+where, arg)
	b, err := scanBoard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return boardrepo.Board{}, boardrepo.ErrNotFound
		}
		return boardrepo.Board{}, err
	}
	return b, nil
}

func (r *Repo) List(ctx context.Context) ([]boardrepo.Board, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, slug, title, description, created_at, updated_at
		FROM boards
		ORDER BY lower(title) ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]boardrepo.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBoard(row pgx.Row) (boardrepo.Board, error) {
	var (
		id uuid.UUID
		b  boardrepo.Board
	)
	if err := row.Scan(&id, &b.Slug, &b.Title, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return boardrepo.Board{}, err
	}
	b.ID = domain.BoardID(id.String())
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}
