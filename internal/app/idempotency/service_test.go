package idempotency

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	memclock "github.com/riverbend-community/community-api/internal/adapters/memory/clock"
	memidem "github.com/riverbend-community/community-api/internal/adapters/memory/idempotency"
	idemport "github.com/riverbend-community/community-api/internal/ports/out/idempotency"
)

const testKey = idemport.Key("3f1e9c4a-8a2b-4c3d-9e5f-6a7b8c9d0e1f")

func newTestService() (*Service, *memidem.Repo, *memclock.ManualClock) {
	repo := memidem.NewRepo()
	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	return NewService(repo, clk), repo, clk
}

func assertCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) {
		t.Fatalf("err=%v (type=%T), want *Error", err, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("got %d %s, want %d %s", ae.Status, ae.Code, status, code)
	}
}

func TestValidateKey_Missing(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	for _, raw := range []string{"", "   "} {
		_, err := svc.ValidateKey(raw)
		assertCode(t, err, http.StatusBadRequest, CodeMissingKey)
	}
}

func TestValidateKey_Invalid(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	_, err := svc.ValidateKey("not-a-uuid")
	assertCode(t, err, http.StatusBadRequest, CodeInvalidKey)
}

func TestValidateKey_OK(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	key, err := svc.ValidateKey(string(testKey))
	if err != nil {
		t.Fatalf("ValidateKey err=%v", err)
	}
	if key != testKey {
		t.Fatalf("key=%q", key)
	}
}

func TestAdmit_NewKeyProceeds(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService()
	adm, err := svc.Admit(context.Background(), testKey, "POST", "/boards", "h1")
	if err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if adm.Replay {
		t.Fatalf("expected proceed, got replay")
	}

	rec, err := repo.FindByKey(context.Background(), testKey)
	if err != nil {
		t.Fatalf("FindByKey err=%v", err)
	}
	if rec.Status != idemport.StatusProcessing || rec.RequestHash != "h1" || rec.RequestMethod != "POST" || rec.RequestPath != "/boards" {
		t.Fatalf("record=%+v", rec)
	}
	if rec.CompletedAt != nil {
		t.Fatalf("completedAt should be nil while PROCESSING")
	}
}

func TestAdmit_ProcessingConflict(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	if _, err := svc.Admit(context.Background(), testKey, "POST", "/boards", "h1"); err != nil {
		t.Fatalf("first Admit err=%v", err)
	}

	// Even a byte-identical duplicate is rejected while in flight.
	_, err := svc.Admit(context.Background(), testKey, "POST", "/boards", "h1")
	assertCode(t, err, http.StatusConflict, CodeProcessing)
}

func TestAdmit_ProcessingWinsOverMismatch(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	if _, err := svc.Admit(context.Background(), testKey, "POST", "/boards", "h1"); err != nil {
		t.Fatalf("first Admit err=%v", err)
	}

	// A mismatched duplicate of an in-flight request still reports the
	// conflict, not the mismatch.
	_, err := svc.Admit(context.Background(), testKey, "POST", "/other", "h2")
	assertCode(t, err, http.StatusConflict, CodeProcessing)
}

func TestAdmit_KeyReuse(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Admit(ctx, testKey, "POST", "/boards", "h1"); err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if err := svc.Complete(ctx, testKey, idemport.Outcome{Status: 201, ContentType: "application/json", Body: []byte(`{}`)}); err != nil {
		t.Fatalf("Complete err=%v", err)
	}

	_, err := svc.Admit(ctx, testKey, "POST", "/topics", "h1")
	assertCode(t, err, http.StatusBadRequest, CodeKeyReuse)

	_, err = svc.Admit(ctx, testKey, "DELETE", "/boards", "h1")
	assertCode(t, err, http.StatusBadRequest, CodeKeyReuse)
}

func TestAdmit_RequestMismatch(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Admit(ctx, testKey, "POST", "/boards", "h1"); err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if err := svc.Complete(ctx, testKey, idemport.Outcome{Status: 201}); err != nil {
		t.Fatalf("Complete err=%v", err)
	}

	_, err := svc.Admit(ctx, testKey, "POST", "/boards", "h2")
	assertCode(t, err, http.StatusBadRequest, CodeRequestMismatch)
}

func TestAdmit_Replay(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Admit(ctx, testKey, "POST", "/boards", "h1"); err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	out := idemport.Outcome{Status: 201, ContentType: "application/json", Body: []byte(`{"id":"x"}`)}
	if err := svc.Complete(ctx, testKey, out); err != nil {
		t.Fatalf("Complete err=%v", err)
	}

	for i := 0; i < 10; i++ {
		adm, err := svc.Admit(ctx, testKey, "POST", "/boards", "h1")
		if err != nil {
			t.Fatalf("Admit replay %d err=%v", i, err)
		}
		if !adm.Replay || adm.ResponseStatus != 201 || string(adm.ResponseBody) != `{"id":"x"}` || adm.ResponseContentType != "application/json" {
			t.Fatalf("replay %d = %+v", i, adm)
		}
	}
}

func TestAdmit_RetryAfterFailure(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Admit(ctx, testKey, "POST", "/boards", "h1"); err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if err := svc.Fail(ctx, testKey); err != nil {
		t.Fatalf("Fail err=%v", err)
	}

	rec, _ := repo.FindByKey(ctx, testKey)
	if rec.Status != idemport.StatusFailed || rec.CompletedAt == nil {
		t.Fatalf("record after Fail=%+v", rec)
	}

	// Byte-identical retry proceeds and the record is PROCESSING again.
	adm, err := svc.Admit(ctx, testKey, "POST", "/boards", "h1")
	if err != nil {
		t.Fatalf("retry Admit err=%v", err)
	}
	if adm.Replay {
		t.Fatalf("expected proceed on retry")
	}
	rec, _ = repo.FindByKey(ctx, testKey)
	if rec.Status != idemport.StatusProcessing || rec.CompletedAt != nil {
		t.Fatalf("record after retry=%+v", rec)
	}
}

func TestAdmit_RetryAfterFailure_MismatchRejected(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Admit(ctx, testKey, "POST", "/boards", "h1"); err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if err := svc.Fail(ctx, testKey); err != nil {
		t.Fatalf("Fail err=%v", err)
	}

	// The retry hash is checked against the stored failed hash before any
	// reset, so a different payload cannot inherit the key.
	_, err := svc.Admit(ctx, testKey, "POST", "/boards", "h2")
	assertCode(t, err, http.StatusBadRequest, CodeRequestMismatch)
}

func TestAdmit_InsertRaceMapsToConflict(t *testing.T) {
	t.Parallel()

	svc, repo, clk := newTestService()
	ctx := context.Background()

	// Simulate losing the insert race: the record appears between our
	// lookup miss and our insert.
	if err := repo.InsertProcessing(ctx, idemport.Record{
		Key:           testKey,
		RequestPath:   "/boards",
		RequestMethod: "POST",
		RequestHash:   "h1",
		CreatedAt:     clk.Now(),
	}); err != nil {
		t.Fatalf("seed InsertProcessing err=%v", err)
	}

	_, err := svc.Admit(ctx, testKey, "POST", "/boards", "h1")
	assertCode(t, err, http.StatusConflict, CodeProcessing)
}

func TestPurgeExpired(t *testing.T) {
	t.Parallel()

	svc, repo, clk := newTestService()
	ctx := context.Background()

	seed := func(key idemport.Key, age time.Duration, terminal bool, fail bool) {
		t.Helper()
		rec := idemport.Record{
			Key:           key,
			RequestPath:   "/boards",
			RequestMethod: "POST",
			RequestHash:   "h",
			CreatedAt:     clk.Now().Add(-age),
		}
		if err := repo.InsertProcessing(ctx, rec); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
		if terminal {
			if fail {
				if err := repo.MarkFailed(ctx, key, clk.Now().Add(-age)); err != nil {
					t.Fatalf("seed fail %s: %v", key, err)
				}
			} else if err := repo.MarkCompleted(ctx, key, idemport.Outcome{Status: 200}, clk.Now().Add(-age)); err != nil {
				t.Fatalf("seed complete %s: %v", key, err)
			}
		}
	}

	const (
		keyA = idemport.Key("00000000-0000-4000-8000-00000000000a")
		keyB = idemport.Key("00000000-0000-4000-8000-00000000000b")
		keyC = idemport.Key("00000000-0000-4000-8000-00000000000c")
		keyD = idemport.Key("00000000-0000-4000-8000-00000000000d")
	)
	seed(keyA, 48*time.Hour, true, false) // COMPLETED, expired
	seed(keyB, 48*time.Hour, true, true)  // FAILED, expired
	seed(keyC, 48*time.Hour, false, false) // PROCESSING, old but protected
	seed(keyD, time.Hour, true, false)    // COMPLETED, fresh

	n, err := svc.PurgeExpired(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeExpired err=%v", err)
	}
	if n != 2 {
		t.Fatalf("deleted=%d, want 2", n)
	}

	for _, tc := range []struct {
		key  idemport.Key
		want bool
	}{
		{keyA, false},
		{keyB, false},
		{keyC, true},
		{keyD, true},
	} {
		_, err := repo.FindByKey(ctx, tc.key)
		if tc.want && err != nil {
			t.Fatalf("key %s should survive: %v", tc.key, err)
		}
		if !tc.want && !errors.Is(err, idemport.ErrNotFound) {
			t.Fatalf("key %s should be deleted, err=%v", tc.key, err)
		}
	}

	// A second run deletes nothing and is not an error.
	n, err = svc.PurgeExpired(ctx, 24*time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("second purge n=%d err=%v", n, err)
	}
}
