package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv err=%v", err)
	}
	if cfg.Port != "8080" || cfg.StorageBackend != "memory" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.IdempotencyRetention != 24*time.Hour {
		t.Fatalf("retention=%v", cfg.IdempotencyRetention)
	}
}

func TestLoadFromEnv_Retention(t *testing.T) {
	t.Setenv("IDEMPOTENCY_RETENTION", "48h")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv err=%v", err)
	}
	if cfg.IdempotencyRetention != 48*time.Hour {
		t.Fatalf("retention=%v", cfg.IdempotencyRetention)
	}

	t.Setenv("IDEMPOTENCY_RETENTION", "not-a-duration")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestLoadFromEnv_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	if _, err := LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv err=%v", err)
	}
}

func TestParseBypass(t *testing.T) {
	t.Parallel()

	routes, err := parseBypass("POST /auth/token, post /sessions")
	if err != nil {
		t.Fatalf("parseBypass err=%v", err)
	}
	want := []Route{
		{Method: "POST", Path: "/auth/token"},
		{Method: "POST", Path: "/sessions"},
	}
	if len(routes) != len(want) {
		t.Fatalf("routes=%+v", routes)
	}
	for i := range want {
		if routes[i] != want[i] {
			t.Fatalf("routes[%d]=%+v, want %+v", i, routes[i], want[i])
		}
	}

	for _, bad := range []string{"POST", "/auth/token", "POST auth/token", "GET /a b"} {
		if _, err := parseBypass(bad); err == nil {
			t.Fatalf("parseBypass(%q) expected error", bad)
		}
	}

	routes, err = parseBypass("  ")
	if err != nil || routes != nil {
		t.Fatalf("empty parseBypass=%v err=%v", routes, err)
	}
}
