package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/riverbend-community/community-api/internal/app/boards"
	"github.com/riverbend-community/community-api/internal/app/topics"
	"github.com/riverbend-community/community-api/internal/domain"
)

// Server is the HTTP adapter over the application services.
type Server struct {
	Boards *boards.Service
	Topics *topics.Service
}

func NewServer(boardsSvc *boards.Service, topicsSvc *topics.Service) *Server {
	return &Server{
		Boards: boardsSvc,
		Topics: topicsSvc,
	}
}

type boardJSON struct {
	BoardId     string    `json:"boardId"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func boardFromDomain(b domain.Board) boardJSON {
	return boardJSON{
		BoardId:     string(b.ID),
		Slug:        b.Slug,
		Title:       b.Title,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	bs, err := s.Boards.ListBoards(r.Context())
	if err != nil {
		s.writeBoardsError(w, r, err)
		return
	}
	out := make([]boardJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, boardFromDomain(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"boards": out})
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Slug        string  `json:"slug"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	b, err := s.Boards.CreateBoard(r.Context(), boards.CreateBoardInput{
		Slug:        body.Slug,
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		s.writeBoardsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"board": boardFromDomain(b)})
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.Boards.GetBoard(r.Context(), domain.BoardID(chi.URLParam(r, "boardID")))
	if err != nil {
		s.writeBoardsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"board": boardFromDomain(b)})
}

func (s *Server) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	b, err := s.Boards.UpdateBoard(r.Context(), domain.BoardID(chi.URLParam(r, "boardID")), boards.UpdateBoardInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		s.writeBoardsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"board": boardFromDomain(b)})
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := s.Boards.DeleteBoard(r.Context(), domain.BoardID(chi.URLParam(r, "boardID"))); err != nil {
		s.writeBoardsError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeBoardsError(w http.ResponseWriter, r *http.Request, err error) {
	ae := (*boards.Error)(nil)
	if errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
}
