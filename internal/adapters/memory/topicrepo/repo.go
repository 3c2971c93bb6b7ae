package topicrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/riverbend-community/community-api/internal/domain"
	"github.com/riverbend-community/community-api/internal/ports/out/topicrepo"
)

// Repo is an in-memory implementation of topicrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID     map[domain.TopicID]topicrepo.Topic
	comments map[domain.TopicID][]topicrepo.Comment
}

func NewRepo() *Repo {
	return &Repo{
		byID:     make(map[domain.TopicID]topicrepo.Topic),
		comments: make(map[domain.TopicID][]topicrepo.Comment),
	}
}

func (r *Repo) Create(ctx context.Context, t topicrepo.Topic) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[t.ID]; ok {
		return topicrepo.ErrAlreadyExists
	}
	r.byID[t.ID] = t
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TopicID) (topicrepo.Topic, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return topicrepo.Topic{}, topicrepo.ErrNotFound
	}
	return t, nil
}

func (r *Repo) ListByBoard(ctx context.Context, board domain.BoardID) ([]topicrepo.Topic, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]topicrepo.Topic, 0)
	for _, t := range r.byID {
		if t.Board == board {
			out = append(out, t)
		}
	}
	// Pinned first, then newest first.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repo) AddComment(ctx context.Context, c topicrepo.Comment) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.Topic]; !ok {
		return topicrepo.ErrNotFound
	}
	r.comments[c.Topic] = append(r.comments[c.Topic], c)
	return nil
}

func (r *Repo) ListComments(ctx context.Context, topic domain.TopicID) ([]topicrepo.Comment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	cs := r.comments[topic]
	out := make([]topicrepo.Comment, len(cs))
	copy(out, cs)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
