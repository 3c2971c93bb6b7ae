package boardrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/riverbend-community/community-api/internal/domain"
	"github.com/riverbend-community/community-api/internal/ports/out/boardrepo"
)

// Repo is an in-memory implementation of boardrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID     map[domain.BoardID]boardrepo.Board
	idBySlug map[string]domain.BoardID
}

func NewRepo() *Repo {
	return &Repo{
		byID:     make(map[domain.BoardID]boardrepo.Board),
		idBySlug: make(map[string]domain.BoardID),
	}
}

func (r *Repo) Create(ctx context.Context, b boardrepo.Board) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[b.ID]; ok {
		return boardrepo.ErrAlreadyExists
	}
	if _, ok := r.idBySlug[b.Slug]; ok {
		return boardrepo.ErrSlugTaken
	}

	r.byID[b.ID] = cloneBoard(b)
	r.idBySlug[b.Slug] = b.ID
	return nil
}

func (r *Repo) Update(ctx context.Context, b boardrepo.Board) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[b.ID]
	if !ok {
		return boardrepo.ErrNotFound
	}
	// Slug is immutable after creation.
	b.Slug = existing.Slug
	r.byID[b.ID] = cloneBoard(b)
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.BoardID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byID[id]
	if !ok {
		return boardrepo.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.idBySlug, b.Slug)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.BoardID) (boardrepo.Board, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return boardrepo.Board{}, boardrepo.ErrNotFound
	}
	return cloneBoard(b), nil
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (boardrepo.Board, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idBySlug[slug]
	if !ok {
		return boardrepo.Board{}, boardrepo.ErrNotFound
	}
	return cloneBoard(r.byID[id]), nil
}

func (r *Repo) List(ctx context.Context) ([]boardrepo.Board, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]boardrepo.Board, 0, len(r.byID))
	for _, b := range r.byID {
		out = append(out, cloneBoard(b))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out, nil
}

func cloneBoard(b boardrepo.Board) boardrepo.Board {
	out := b
	if b.Description != nil {
		d := *b.Description
		out.Description = &d
	}
	return out
}
