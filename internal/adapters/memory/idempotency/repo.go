package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/riverbend-community/community-api/internal/ports/out/idempotency"
)

// Repo is an in-memory implementation of idempotency.Repository.
// It is safe for concurrent use. The mutex only protects the map; the
// insert-if-absent check runs under it, which gives the same atomic
// insert-or-fail semantics the Postgres uniqueness constraint provides.
type Repo struct {
	mu sync.RWMutex
	m  map[idempotency.Key]idempotency.Record
}

func NewRepo() *Repo {
	return &Repo{
		m: make(map[idempotency.Key]idempotency.Record),
	}
}

func (r *Repo) InsertProcessing(ctx context.Context, rec idempotency.Record) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[rec.Key]; ok {
		return idempotency.ErrKeyExists
	}
	rec.Status = idempotency.StatusProcessing
	rec.CompletedAt = nil
	r.m[rec.Key] = cloneRecord(rec)
	return nil
}

func (r *Repo) FindByKey(ctx context.Context, key idempotency.Key) (idempotency.Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.m[key]
	if !ok {
		return idempotency.Record{}, idempotency.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *Repo) MarkCompleted(ctx context.Context, key idempotency.Key, out idempotency.Outcome, completedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.m[key]
	if !ok {
		return idempotency.ErrNotFound
	}
	rec.Status = idempotency.StatusCompleted
	rec.ResponseStatus = out.Status
	rec.ResponseContentType = out.ContentType
	rec.ResponseBody = append([]byte(nil), out.Body...)
	t := completedAt.UTC()
	rec.CompletedAt = &t
	r.m[key] = rec
	return nil
}

func (r *Repo) MarkFailed(ctx context.Context, key idempotency.Key, completedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.m[key]
	if !ok {
		return idempotency.ErrNotFound
	}
	rec.Status = idempotency.StatusFailed
	t := completedAt.UTC()
	rec.CompletedAt = &t
	r.m[key] = rec
	return nil
}

func (r *Repo) ResetToProcessing(ctx context.Context, key idempotency.Key, newHash string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.m[key]
	if !ok {
		return idempotency.ErrNotFound
	}
	if rec.Status != idempotency.StatusFailed {
		return idempotency.ErrNotResettable
	}
	rec.Status = idempotency.StatusProcessing
	rec.RequestHash = newHash
	rec.CompletedAt = nil
	r.m[key] = rec
	return nil
}

func (r *Repo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, rec := range r.m {
		if rec.Status.Terminal() && rec.CreatedAt.Before(cutoff) {
			delete(r.m, k)
			n++
		}
	}
	return n, nil
}

func cloneRecord(rec idempotency.Record) idempotency.Record {
	out := rec
	out.ResponseBody = append([]byte(nil), rec.ResponseBody...)
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
