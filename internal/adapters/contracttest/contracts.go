// Package contracttest holds behavioral suites every repository adapter must
// pass, so the memory and Postgres implementations cannot drift apart.
package contracttest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/riverbend-community/community-api/internal/domain"
	boardrepoport "github.com/riverbend-community/community-api/internal/ports/out/boardrepo"
	idempotencyport "github.com/riverbend-community/community-api/internal/ports/out/idempotency"
	topicrepoport "github.com/riverbend-community/community-api/internal/ports/out/topicrepo"
)

type CleanupFunc = func()

type IdemRepoFactory func(t *testing.T) (idempotencyport.Repository, CleanupFunc)
type BoardRepoFactory func(t *testing.T) (boardrepoport.Repository, CleanupFunc)
type TopicRepoFactory func(t *testing.T) (topicrepoport.Repository, boardrepoport.Repository, CleanupFunc)

func RunIdempotencyRepo(t *testing.T, newRepo IdemRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	key := idempotencyport.Key(uuid.NewString())
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := idempotencyport.Record{
		Key:           key,
		RequestPath:   "/boards",
		RequestMethod: "POST",
		RequestHash:   "hash-1",
		Status:        idempotencyport.StatusProcessing,
		CreatedAt:     base,
	}
	if err := repo.InsertProcessing(ctx, rec); err != nil {
		t.Fatalf("InsertProcessing: %v", err)
	}

	// The insert is atomic-if-absent: a second insert for the same key must
	// fail with the distinguishable conflict sentinel.
	if err := repo.InsertProcessing(ctx, rec); !errors.Is(err, idempotencyport.ErrKeyExists) {
		t.Fatalf("duplicate InsertProcessing err=%v, want ErrKeyExists", err)
	}

	got, err := repo.FindByKey(ctx, key)
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if got.Status != idempotencyport.StatusProcessing || got.RequestHash != "hash-1" || got.CompletedAt != nil {
		t.Fatalf("record after insert: %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("createdAt=%v, want %v", got.CreatedAt, base)
	}

	// PROCESSING records cannot be reset.
	if err := repo.ResetToProcessing(ctx, key, "hash-2"); !errors.Is(err, idempotencyport.ErrNotResettable) {
		t.Fatalf("reset of PROCESSING err=%v, want ErrNotResettable", err)
	}

	// Terminal transition with cached outcome.
	out := idempotencyport.Outcome{Status: 201, ContentType: "application/json", Body: []byte(`{"id":"b-1"}`)}
	completedAt := base.Add(time.Second)
	if err := repo.MarkCompleted(ctx, key, out, completedAt); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	got, err = repo.FindByKey(ctx, key)
	if err != nil {
		t.Fatalf("FindByKey after complete: %v", err)
	}
	if got.Status != idempotencyport.StatusCompleted ||
		got.ResponseStatus != 201 ||
		got.ResponseContentType != "application/json" ||
		string(got.ResponseBody) != `{"id":"b-1"}` {
		t.Fatalf("record after complete: %+v", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("completedAt=%v, want %v", got.CompletedAt, completedAt)
	}

	// FAILED then reset: hash is rewritten, completedAt cleared.
	failedKey := idempotencyport.Key(uuid.NewString())
	failedRec := rec
	failedRec.Key = failedKey
	if err := repo.InsertProcessing(ctx, failedRec); err != nil {
		t.Fatalf("InsertProcessing failedKey: %v", err)
	}
	if err := repo.MarkFailed(ctx, failedKey, completedAt); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	got, err = repo.FindByKey(ctx, failedKey)
	if err != nil || got.Status != idempotencyport.StatusFailed || got.CompletedAt == nil {
		t.Fatalf("record after fail: %+v err=%v", got, err)
	}
	if err := repo.ResetToProcessing(ctx, failedKey, "hash-retry"); err != nil {
		t.Fatalf("ResetToProcessing: %v", err)
	}
	got, err = repo.FindByKey(ctx, failedKey)
	if err != nil {
		t.Fatalf("FindByKey after reset: %v", err)
	}
	if got.Status != idempotencyport.StatusProcessing || got.RequestHash != "hash-retry" || got.CompletedAt != nil {
		t.Fatalf("record after reset: %+v", got)
	}

	// Unknown keys.
	if _, err := repo.FindByKey(ctx, idempotencyport.Key(uuid.NewString())); !errors.Is(err, idempotencyport.ErrNotFound) {
		t.Fatalf("FindByKey unknown err=%v, want ErrNotFound", err)
	}
	if err := repo.MarkCompleted(ctx, idempotencyport.Key(uuid.NewString()), out, completedAt); !errors.Is(err, idempotencyport.ErrNotFound) {
		t.Fatalf("MarkCompleted unknown err=%v, want ErrNotFound", err)
	}
	if err := repo.MarkFailed(ctx, idempotencyport.Key(uuid.NewString()), completedAt); !errors.Is(err, idempotencyport.ErrNotFound) {
		t.Fatalf("MarkFailed unknown err=%v, want ErrNotFound", err)
	}
}

// RunIdempotencyRepoPurge verifies the retention policy: terminal records
// past the cutoff are deleted, PROCESSING rows survive regardless of age.
func RunIdempotencyRepoPurge(t *testing.T, newRepo IdemRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	seed := func(age time.Duration, status idempotencyport.Status) idempotencyport.Key {
		t.Helper()
		key := idempotencyport.Key(uuid.NewString())
		rec := idempotencyport.Record{
			Key:           key,
			RequestPath:   "/boards",
			RequestMethod: "POST",
			RequestHash:   "h",
			CreatedAt:     now.Add(-age),
		}
		if err := repo.InsertProcessing(ctx, rec); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
		switch status {
		case idempotencyport.StatusCompleted:
			if err := repo.MarkCompleted(ctx, key, idempotencyport.Outcome{Status: 200}, now.Add(-age)); err != nil {
				t.Fatalf("seed complete: %v", err)
			}
		case idempotencyport.StatusFailed:
			if err := repo.MarkFailed(ctx, key, now.Add(-age)); err != nil {
				t.Fatalf("seed fail: %v", err)
			}
		}
		return key
	}

	oldCompleted := seed(48*time.Hour, idempotencyport.StatusCompleted)
	oldFailed := seed(48*time.Hour, idempotencyport.StatusFailed)
	oldProcessing := seed(48*time.Hour, idempotencyport.StatusProcessing)
	freshCompleted := seed(time.Hour, idempotencyport.StatusCompleted)

	n, err := repo.PurgeExpired(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged=%d, want 2", n)
	}

	for _, key := range []idempotencyport.Key{oldCompleted, oldFailed} {
		if _, err := repo.FindByKey(ctx, key); !errors.Is(err, idempotencyport.ErrNotFound) {
			t.Fatalf("key %s should be purged, err=%v", key, err)
		}
	}
	for _, key := range []idempotencyport.Key{oldProcessing, freshCompleted} {
		if _, err := repo.FindByKey(ctx, key); err != nil {
			t.Fatalf("key %s should survive: %v", key, err)
		}
	}
}

// RunIdempotencyRepoInsertRace hammers InsertProcessing for one key from
// many goroutines; exactly one insert may win.
func RunIdempotencyRepoInsertRace(t *testing.T, newRepo IdemRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	key := idempotencyport.Key(uuid.NewString())
	const racers = 16

	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.InsertProcessing(ctx, idempotencyport.Record{
				Key:           key,
				RequestPath:   "/boards",
				RequestMethod: "POST",
				RequestHash:   "h",
				CreatedAt:     time.Now().UTC(),
			})
			switch {
			case err == nil:
				wins <- struct{}{}
			case errors.Is(err, idempotencyport.ErrKeyExists):
			default:
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(wins)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if got := len(wins); got != 1 {
		t.Fatalf("winners=%d, want exactly 1", got)
	}
}

func RunBoardRepo(t *testing.T, newRepo BoardRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	aID := domain.BoardID(uuid.NewString())
	if err := repo.Create(ctx, boardrepoport.Board{
		ID:        aID,
		Slug:      "general",
		Title:     "General",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if _, err := repo.GetByID(ctx, aID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if _, err := repo.GetBySlug(ctx, "general"); err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}

	// Slug uniqueness.
	if err := repo.Create(ctx, boardrepoport.Board{
		ID:        domain.BoardID(uuid.NewString()),
		Slug:      "general",
		Title:     "General 2",
		CreatedAt: now,
		UpdatedAt: now,
	}); !errors.Is(err, boardrepoport.ErrSlugTaken) {
		t.Fatalf("duplicate slug err=%v, want ErrSlugTaken", err)
	}

	// Deterministic list ordering by title (case-insensitive).
	bID := domain.BoardID(uuid.NewString())
	if err := repo.Create(ctx, boardrepoport.Board{
		ID:        bID,
		Slug:      "announcements",
		Title:     "announcements",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != bID || list[1].ID != aID {
		t.Fatalf("list order: %+v", list)
	}

	// Update and delete.
	a, _ := repo.GetByID(ctx, aID)
	a.Title = "General Discussion"
	a.UpdatedAt = now.Add(time.Hour)
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	a, _ = repo.GetByID(ctx, aID)
	if a.Title != "General Discussion" {
		t.Fatalf("title after update=%q", a.Title)
	}
	if err := repo.Delete(ctx, aID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, aID); !errors.Is(err, boardrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, aID); !errors.Is(err, boardrepoport.ErrNotFound) {
		t.Fatalf("second Delete err=%v, want ErrNotFound", err)
	}
}

func RunTopicRepo(t *testing.T, newRepo TopicRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, boards, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	boardID := domain.BoardID(uuid.NewString())
	if err := boards.Create(ctx, boardrepoport.Board{
		ID:        boardID,
		Slug:      "general",
		Title:     "General",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create board: %v", err)
	}

	older := domain.TopicID(uuid.NewString())
	newer := domain.TopicID(uuid.NewString())
	pinned := domain.TopicID(uuid.NewString())
	for _, tc := range []struct {
		id     domain.TopicID
		at     time.Time
		pinned bool
	}{
		{older, now, false},
		{newer, now.Add(time.Hour), false},
		{pinned, now.Add(-time.Hour), true},
	} {
		if err := repo.Create(ctx, topicrepoport.Topic{
			ID:        tc.id,
			Board:     boardID,
			Author:    domain.SubjectID("sub-1"),
			Title:     "Topic",
			Body:      "body",
			Pinned:    tc.pinned,
			CreatedAt: tc.at,
			UpdatedAt: tc.at,
		}); err != nil {
			t.Fatalf("Create topic %s: %v", tc.id, err)
		}
	}

	// Pinned first, then newest first.
	list, err := repo.ListByBoard(ctx, boardID)
	if err != nil {
		t.Fatalf("ListByBoard: %v", err)
	}
	if len(list) != 3 || list[0].ID != pinned || list[1].ID != newer || list[2].ID != older {
		t.Fatalf("topic order: %+v", list)
	}

	// Comments in chronological order.
	first := domain.CommentID(uuid.NewString())
	second := domain.CommentID(uuid.NewString())
	if err := repo.AddComment(ctx, topicrepoport.Comment{
		ID: second, Topic: older, Author: "sub-2", Body: "later", CreatedAt: now.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("AddComment second: %v", err)
	}
	if err := repo.AddComment(ctx, topicrepoport.Comment{
		ID: first, Topic: older, Author: "sub-2", Body: "earlier", CreatedAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("AddComment first: %v", err)
	}
	comments, err := repo.ListComments(ctx, older)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 2 || comments[0].ID != first || comments[1].ID != second {
		t.Fatalf("comment order: %+v", comments)
	}

	if err := repo.AddComment(ctx, topicrepoport.Comment{
		ID: domain.CommentID(uuid.NewString()), Topic: domain.TopicID(uuid.NewString()),
		Author: "sub-2", Body: "orphan", CreatedAt: now,
	}); !errors.Is(err, topicrepoport.ErrNotFound) {
		t.Fatalf("orphan comment err=%v, want ErrNotFound", err)
	}
}
