package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Route is one (method, path) pair on the idempotency bypass allow-list.
type Route struct {
	Method string
	Path   string
}

// Config is the deployment-provided configuration for the API process.
type Config struct {
	Port           string
	StorageBackend string // "memory" or "postgres"
	DatabaseURL    string

	// DevSubject is the fallback caller identity for the dev auth shim.
	DevSubject string

	// IdempotencyRetention is how long terminal idempotency records are
	// kept before the reaper may delete them.
	IdempotencyRetention time.Duration

	// ReapSchedule is a standard 5-field cron expression for reaper runs.
	ReapSchedule string

	// IdempotencyBypass lists bootstrap routes exempt from the gatekeeper.
	IdempotencyBypass []Route
}

// LoadFromEnv reads configuration from the environment, applying defaults
// that make local/dev/test behavior predictable.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port:                 getenv("PORT", "8080"),
		StorageBackend:       getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		DevSubject:           getenv("DEV_SUBJECT", "dev|local"),
		IdempotencyRetention: 24 * time.Hour,
		ReapSchedule:         getenv("IDEMPOTENCY_REAP_SCHEDULE", "*/10 * * * *"),
	}

	if v := os.Getenv("IDEMPOTENCY_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("IDEMPOTENCY_RETENTION must be a duration (e.g. 24h): %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("IDEMPOTENCY_RETENTION must be positive")
		}
		cfg.IdempotencyRetention = d
	}

	routes, err := parseBypass(os.Getenv("IDEMPOTENCY_BYPASS"))
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyBypass = routes

	if cfg.StorageBackend == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
	}

	return cfg, nil
}

// parseBypass parses "METHOD /path" entries separated by commas, e.g.
// "POST /auth/token, POST /sessions".
func parseBypass(raw string) ([]Route, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []Route
	for _, entry := range strings.Split(raw, ",") {
		fields := strings.Fields(entry)
		if len(fields) != 2 || !strings.HasPrefix(fields[1], "/") {
			return nil, fmt.Errorf("IDEMPOTENCY_BYPASS entry %q must look like \"POST /path\"", strings.TrimSpace(entry))
		}
		out = append(out, Route{Method: strings.ToUpper(fields[0]), Path: fields[1]})
	}
	return out, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
