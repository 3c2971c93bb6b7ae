package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/riverbend-community/community-api/internal/app/topics"
	"github.com/riverbend-community/community-api/internal/domain"
)

type topicJSON struct {
	TopicId   string    `json:"topicId"`
	BoardId   string    `json:"boardId"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type commentJSON struct {
	CommentId string    `json:"commentId"`
	TopicId   string    `json:"topicId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func topicFromDomain(t domain.Topic) topicJSON {
	return topicJSON{
		TopicId:   string(t.ID),
		BoardId:   string(t.Board),
		Author:    string(t.Author),
		Title:     t.Title,
		Body:      t.Body,
		Pinned:    t.Pinned,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func commentFromDomain(c domain.Comment) commentJSON {
	return commentJSON{
		CommentId: string(c.ID),
		TopicId:   string(c.Topic),
		Author:    string(c.Author),
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Topics.ListTopics(r.Context(), domain.BoardID(chi.URLParam(r, "boardID")))
	if err != nil {
		s.writeTopicsError(w, r, err)
		return
	}
	out := make([]topicJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, topicFromDomain(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": out})
}

func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	t, err := s.Topics.CreateTopic(r.Context(), domain.BoardID(chi.URLParam(r, "boardID")), domain.SubjectID(sub), topics.CreateTopicInput{
		Title: body.Title,
		Body:  body.Body,
	})
	if err != nil {
		s.writeTopicsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"topic": topicFromDomain(t)})
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	t, err := s.Topics.GetTopic(r.Context(), domain.TopicID(chi.URLParam(r, "topicID")))
	if err != nil {
		s.writeTopicsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topic": topicFromDomain(t)})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	cs, err := s.Topics.ListComments(r.Context(), domain.TopicID(chi.URLParam(r, "topicID")))
	if err != nil {
		s.writeTopicsError(w, r, err)
		return
	}
	out := make([]commentJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, commentFromDomain(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": out})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	var body struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	c, err := s.Topics.AddComment(r.Context(), domain.TopicID(chi.URLParam(r, "topicID")), domain.SubjectID(sub), topics.AddCommentInput{
		Body: body.Body,
	})
	if err != nil {
		s.writeTopicsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"comment": commentFromDomain(c)})
}

func (s *Server) writeTopicsError(w http.ResponseWriter, r *http.Request, err error) {
	ae := (*topics.Error)(nil)
	if errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
}
