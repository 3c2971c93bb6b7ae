package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for every table this service owns. Statements are
// idempotent so EnsureSchema can run at startup and in test setup.
//
// idempotency_records: the primary key on idempotency_key doubles as the
// mutual-exclusion primitive for first admission; a plain INSERT either
// commits the one PROCESSING row or fails with a unique violation. Do not
// weaken it to ON CONFLICT DO NOTHING; callers must observe the conflict.
const Schema = `
CREATE TABLE IF NOT EXISTS idempotency_records (
	idempotency_key       uuid PRIMARY KEY,
	request_path          text NOT NULL,
	request_method        text NOT NULL,
	request_hash          text NOT NULL,
	status                text NOT NULL CHECK (status IN ('PROCESSING', 'COMPLETED', 'FAILED')),
	response_status       integer,
	response_content_type text,
	response_body         bytea,
	created_at            timestamptz NOT NULL,
	completed_at          timestamptz
);

CREATE INDEX IF NOT EXISTS idempotency_records_reap_idx
	ON idempotency_records (created_at)
	WHERE status <> 'PROCESSING';

CREATE TABLE IF NOT EXISTS boards (
	id          uuid PRIMARY KEY,
	slug        text NOT NULL,
	title       text NOT NULL,
	description text,
	created_at  timestamptz NOT NULL,
	updated_at  timestamptz NOT NULL,
	CONSTRAINT boards_slug_unique UNIQUE (slug)
);

CREATE TABLE IF NOT EXISTS topics (
	id         uuid PRIMARY KEY,
	board_id   uuid NOT NULL REFERENCES boards (id) ON DELETE CASCADE,
	author_sub text NOT NULL,
	title      text NOT NULL,
	body       text NOT NULL,
	pinned     boolean NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS topics_board_idx ON topics (board_id, pinned, created_at DESC);

CREATE TABLE IF NOT EXISTS comments (
	id         uuid PRIMARY KEY,
	topic_id   uuid NOT NULL REFERENCES topics (id) ON DELETE CASCADE,
	author_sub text NOT NULL,
	body       text NOT NULL,
	created_at timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS comments_topic_idx ON comments (topic_id, created_at);
`

// EnsureSchema applies Schema to the connected database.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
