package topicrepo

import (
	"testing"

	"github.com/riverbend-community/community-api/internal/adapters/contracttest"
	pgboardrepo "github.com/riverbend-community/community-api/internal/adapters/postgres/boardrepo"
	"github.com/riverbend-community/community-api/internal/adapters/postgres/testutil"
	boardrepoport "github.com/riverbend-community/community-api/internal/ports/out/boardrepo"
	topicrepoport "github.com/riverbend-community/community-api/internal/ports/out/topicrepo"
)

func TestContract_TopicRepo(t *testing.T) {
	contracttest.RunTopicRepo(t, func(t *testing.T) (topicrepoport.Repository, boardrepoport.Repository, func()) {
		t.Helper()
		pool := testutil.OpenMigratedPool(t)
		return NewRepo(pool), pgboardrepo.NewRepo(pool), nil
	})
}
