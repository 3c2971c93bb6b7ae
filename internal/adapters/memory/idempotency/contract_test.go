package idempotency

import (
	"testing"

	"github.com/riverbend-community/community-api/internal/adapters/contracttest"
	idempotencyport "github.com/riverbend-community/community-api/internal/ports/out/idempotency"
)

func newFactory(t *testing.T) (idempotencyport.Repository, func()) {
	t.Helper()
	return NewRepo(), nil
}

func TestContract_IdempotencyRepo(t *testing.T) {
	contracttest.RunIdempotencyRepo(t, newFactory)
}

func TestContract_IdempotencyRepo_Purge(t *testing.T) {
	contracttest.RunIdempotencyRepoPurge(t, newFactory)
}

func TestContract_IdempotencyRepo_InsertRace(t *testing.T) {
	contracttest.RunIdempotencyRepoInsertRace(t, newFactory)
}
