package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/riverbend-community/community-api/internal/adapters/postgres"
	"github.com/riverbend-community/community-api/internal/ports/out/idempotency"
)

// Repo is a Postgres implementation of idempotency.Repository.
//
// Every method runs a single autocommitted statement against the pool and
// is never enlisted in a caller transaction. That keeps lifecycle markers
// durable even when the guarded handler's own transaction rolls back.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) InsertProcessing(ctx context.Context, rec idempotency.Record) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_records (
			idempotency_key,
			request_path,
			request_method,
			request_hash,
			status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		string(rec.Key),
		rec.RequestPath,
		rec.RequestMethod,
		rec.RequestHash,
		string(idempotency.StatusProcessing),
		createdAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return idempotency.ErrKeyExists
		}
		return err
	}
	return nil
}

func (r *Repo) FindByKey(ctx context.Context, key idempotency.Key) (idempotency.Record, error) {
	if r.pool == nil {
		return idempotency.Record{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT request_path, request_method, request_hash, status,
		       response_status, response_content_type, response_body,
		       created_at, completed_at
		FROM idempotency_records
		WHERE idempotency_key = $1
	`, string(key))

	rec := idempotency.Record{Key: key}
	var (
		status      string
		respStatus  *int
		respCType   *string
		completedAt *time.Time
	)
	if err := row.Scan(
		&rec.RequestPath,
		&rec.RequestMethod,
		&rec.RequestHash,
		&status,
		&respStatus,
		&respCType,
		&rec.ResponseBody,
		&rec.CreatedAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return idempotency.Record{}, idempotency.ErrNotFound
		}
		return idempotency.Record{}, err
	}

	rec.Status = idempotency.Status(status)
	if respStatus != nil {
		rec.ResponseStatus = *respStatus
	}
	if respCType != nil {
		rec.ResponseContentType = *respCType
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if completedAt != nil {
		t := completedAt.UTC()
		rec.CompletedAt = &t
	}
	return rec, nil
}

func (r *Repo) MarkCompleted(ctx context.Context, key idempotency.Key, out idempotency.Outcome, completedAt time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE idempotency_records
		SET status = $2,
		    response_status = $3,
		    response_content_type = $4,
		    response_body = $5,
		    completed_at = $6
		WHERE idempotency_key = $1
	`,
		string(key),
		string(idempotency.StatusCompleted),
		out.Status,
		out.ContentType,
		out.Body,
		completedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return idempotency.ErrNotFound
	}
	return nil
}

func (r *Repo) MarkFailed(ctx context.Context, key idempotency.Key, completedAt time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE idempotency_records
		SET status = $2,
		    completed_at = $3
		WHERE idempotency_key = $1
	`,
		string(key),
		string(idempotency.StatusFailed),
		completedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return idempotency.ErrNotFound
	}
	return nil
}

func (r *Repo) ResetToProcessing(ctx context.Context, key idempotency.Key, newHash string) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	// The status predicate makes the reset race-safe: of two concurrent
	// retries, only one flips FAILED -> PROCESSING.
	ct, err := r.pool.Exec(ctx, `
		UPDATE idempotency_records
		SET status = $2,
		    request_hash = $3,
		    response_status = NULL,
		    response_content_type = NULL,
		    response_body = NULL,
		    completed_at = NULL
		WHERE idempotency_key = $1 AND status = $4
	`,
		string(key),
		string(idempotency.StatusProcessing),
		newHash,
		string(idempotency.StatusFailed),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.FindByKey(ctx, key); errors.Is(err, idempotency.ErrNotFound) {
			return idempotency.ErrNotFound
		}
		return idempotency.ErrNotResettable
	}
	return nil
}

func (r *Repo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM idempotency_records
		WHERE status <> $1 AND created_at < $2
	`,
		string(idempotency.StatusProcessing),
		cutoff.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
