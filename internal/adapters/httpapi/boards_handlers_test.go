package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	memboardrepo "github.com/riverbend-community/community-api/internal/adapters/memory/boardrepo"
	memclock "github.com/riverbend-community/community-api/internal/adapters/memory/clock"
	memidem "github.com/riverbend-community/community-api/internal/adapters/memory/idempotency"
	memtopicrepo "github.com/riverbend-community/community-api/internal/adapters/memory/topicrepo"
	"github.com/riverbend-community/community-api/internal/app/boards"
	appidem "github.com/riverbend-community/community-api/internal/app/idempotency"
	"github.com/riverbend-community/community-api/internal/app/topics"
)

// apiHarness runs the whole HTTP stack against in-memory adapters: dev auth,
// the idempotency gatekeeper, and the real router.
type apiHarness struct {
	router http.Handler
	clk    *memclock.ManualClock
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	boardRepo := memboardrepo.NewRepo()
	topicRepo := memtopicrepo.NewRepo()

	srv := NewServer(
		boards.NewService(boardRepo, clk),
		topics.NewService(topicRepo, boardRepo, clk),
	)
	router := NewRouter(srv, RouterOptions{
		AuthMiddleware: NewDevAuthMiddleware("sub-default"),
		IdempotencyMiddleware: NewIdempotencyMiddleware(
			appidem.NewService(memidem.NewRepo(), clk),
			IdempotencyOptions{},
		),
	})
	return &apiHarness{router: router, clk: clk}
}

// request performs one HTTP round trip. Mutating requests get a fresh
// idempotency key so each one is admitted on its own terms.
func (h *apiHarness) request(t *testing.T, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if method != http.MethodGet && method != http.MethodHead {
		req.Header.Set(IdempotencyKeyHeader, uuid.NewString())
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, rec, &payload)
	return payload.Error.Code
}

func (h *apiHarness) createBoard(t *testing.T, slug, title string) string {
	t.Helper()
	rec := h.request(t, http.MethodPost, "/boards",
		fmt.Sprintf(`{"slug":%q,"title":%q}`, slug, title), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create board status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Board struct {
			BoardId string `json:"boardId"`
		} `json:"board"`
	}
	decodeBody(t, rec, &payload)
	return payload.Board.BoardId
}

func TestAPI_Healthz(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	rec := h.request(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestAPI_BoardCRUD(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	id := h.createBoard(t, "general", "General")

	rec := h.request(t, http.MethodGet, "/boards/"+id, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d body=%s", rec.Code, rec.Body.String())
	}
	var getPayload struct {
		Board boardJSON `json:"board"`
	}
	decodeBody(t, rec, &getPayload)
	if getPayload.Board.Slug != "general" || getPayload.Board.Title != "General" {
		t.Fatalf("board=%+v", getPayload.Board)
	}

	rec = h.request(t, http.MethodPatch, "/boards/"+id, `{"title":"General Chat"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &getPayload)
	if getPayload.Board.Title != "General Chat" || getPayload.Board.Slug != "general" {
		t.Fatalf("after patch: %+v", getPayload.Board)
	}

	rec = h.request(t, http.MethodGet, "/boards", "", nil)
	var listPayload struct {
		Boards []boardJSON `json:"boards"`
	}
	decodeBody(t, rec, &listPayload)
	if len(listPayload.Boards) != 1 {
		t.Fatalf("boards=%+v", listPayload.Boards)
	}

	rec = h.request(t, http.MethodDelete, "/boards/"+id, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.request(t, http.MethodGet, "/boards/"+id, "", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "BOARD_NOT_FOUND" {
		t.Fatalf("get after delete status=%d code=%s", rec.Code, errorCode(t, rec))
	}
}

func TestAPI_CreateBoard_SlugTaken(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	h.createBoard(t, "general", "General")

	rec := h.request(t, http.MethodPost, "/boards", `{"slug":"general","title":"Other"}`, nil)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "BOARD_SLUG_TAKEN" {
		t.Fatalf("status=%d code=%s", rec.Code, errorCode(t, rec))
	}
}

func TestAPI_CreateBoard_Validation(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	rec := h.request(t, http.MethodPost, "/boards", `{"slug":"Bad Slug","title":"General"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("status=%d code=%s body=%s", rec.Code, errorCode(t, rec), rec.Body.String())
	}

	rec = h.request(t, http.MethodPost, "/boards", `not json`, nil)
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("malformed body status=%d code=%s", rec.Code, errorCode(t, rec))
	}
}

func TestAPI_MutationWithoutKeyRejected(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/boards", strings.NewReader(`{"slug":"general","title":"General"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "MISSING_IDEMPOTENCY_KEY" {
		t.Fatalf("status=%d code=%s", rec.Code, errorCode(t, rec))
	}
}

func TestAPI_TopicsAndComments(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	boardID := h.createBoard(t, "general", "General")

	rec := h.request(t, http.MethodPost, "/boards/"+boardID+"/topics",
		`{"title":"Hello","body":"first post"}`,
		map[string]string{"X-Debug-Subject": "sub-alice"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create topic status=%d body=%s", rec.Code, rec.Body.String())
	}
	var topicPayload struct {
		Topic topicJSON `json:"topic"`
	}
	decodeBody(t, rec, &topicPayload)
	if topicPayload.Topic.Author != "sub-alice" || topicPayload.Topic.BoardId != boardID {
		t.Fatalf("topic=%+v", topicPayload.Topic)
	}
	topicID := topicPayload.Topic.TopicId

	rec = h.request(t, http.MethodGet, "/boards/"+boardID+"/topics", "", nil)
	var listPayload struct {
		Topics []topicJSON `json:"topics"`
	}
	decodeBody(t, rec, &listPayload)
	if len(listPayload.Topics) != 1 || listPayload.Topics[0].TopicId != topicID {
		t.Fatalf("topics=%+v", listPayload.Topics)
	}

	rec = h.request(t, http.MethodPost, "/topics/"+topicID+"/comments", `{"body":"nice"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add comment status=%d body=%s", rec.Code, rec.Body.String())
	}
	var commentPayload struct {
		Comment commentJSON `json:"comment"`
	}
	decodeBody(t, rec, &commentPayload)
	if commentPayload.Comment.Author != "sub-default" {
		t.Fatalf("comment author=%q, want dev fallback subject", commentPayload.Comment.Author)
	}

	rec = h.request(t, http.MethodGet, "/topics/"+topicID+"/comments", "", nil)
	var commentsPayload struct {
		Comments []commentJSON `json:"comments"`
	}
	decodeBody(t, rec, &commentsPayload)
	if len(commentsPayload.Comments) != 1 || commentsPayload.Comments[0].Body != "nice" {
		t.Fatalf("comments=%+v", commentsPayload.Comments)
	}
}

func TestAPI_CreateTopic_BoardNotFound(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	rec := h.request(t, http.MethodPost, "/boards/"+uuid.NewString()+"/topics",
		`{"title":"Hello","body":"text"}`, nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "BOARD_NOT_FOUND" {
		t.Fatalf("status=%d code=%s", rec.Code, errorCode(t, rec))
	}
}

func TestAPI_NoSubjectRejected(t *testing.T) {
	t.Parallel()

	// Harness without a fallback subject: requests must carry X-Debug-Subject.
	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	boardRepo := memboardrepo.NewRepo()
	srv := NewServer(
		boards.NewService(boardRepo, clk),
		topics.NewService(memtopicrepo.NewRepo(), boardRepo, clk),
	)
	router := NewRouter(srv, RouterOptions{
		AuthMiddleware: NewDevAuthMiddleware(""),
	})

	req := httptest.NewRequest(http.MethodGet, "/boards", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "UNAUTHORIZED" {
		t.Fatalf("status=%d code=%s", rec.Code, errorCode(t, rec))
	}
}

func TestAPI_ReplayedCreateDoesNotDuplicate(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	key := uuid.NewString()
	body := `{"slug":"general","title":"General"}`
	hdr := map[string]string{IdempotencyKeyHeader: key}

	first := h.request(t, http.MethodPost, "/boards", body, hdr)
	if first.Code != http.StatusCreated {
		t.Fatalf("first status=%d body=%s", first.Code, first.Body.String())
	}
	second := h.request(t, http.MethodPost, "/boards", body, hdr)
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("replay status=%d body=%s, want cached copy of %s",
			second.Code, second.Body.String(), first.Body.String())
	}

	rec := h.request(t, http.MethodGet, "/boards", "", nil)
	var listPayload struct {
		Boards []boardJSON `json:"boards"`
	}
	decodeBody(t, rec, &listPayload)
	if len(listPayload.Boards) != 1 {
		t.Fatalf("boards=%d, want exactly one despite the duplicate POST", len(listPayload.Boards))
	}
}
