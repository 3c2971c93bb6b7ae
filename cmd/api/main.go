package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/riverbend-community/community-api/internal/adapters/httpapi"
	memboardrepo "github.com/riverbend-community/community-api/internal/adapters/memory/boardrepo"
	memidem "github.com/riverbend-community/community-api/internal/adapters/memory/idempotency"
	memtopicrepo "github.com/riverbend-community/community-api/internal/adapters/memory/topicrepo"
	postgres "github.com/riverbend-community/community-api/internal/adapters/postgres"
	pgboardrepo "github.com/riverbend-community/community-api/internal/adapters/postgres/boardrepo"
	pgidem "github.com/riverbend-community/community-api/internal/adapters/postgres/idempotency"
	pgtopicrepo "github.com/riverbend-community/community-api/internal/adapters/postgres/topicrepo"
	"github.com/riverbend-community/community-api/internal/app/boards"
	appidem "github.com/riverbend-community/community-api/internal/app/idempotency"
	"github.com/riverbend-community/community-api/internal/app/topics"
	platformclock "github.com/riverbend-community/community-api/internal/platform/clock"
	"github.com/riverbend-community/community-api/internal/platform/config"
	"github.com/riverbend-community/community-api/internal/platform/reaper"
	boardrepoport "github.com/riverbend-community/community-api/internal/ports/out/boardrepo"
	idemport "github.com/riverbend-community/community-api/internal/ports/out/idempotency"
	topicrepoport "github.com/riverbend-community/community-api/internal/ports/out/topicrepo"
)

func main() {
	// Optional .env for local workflows; missing file is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	clk := platformclock.NewSystemClock()

	var (
		boardRepo boardrepoport.Repository
		topicRepo topicrepoport.Repository
		idemRepo  idemport.Repository
		cleanup   func()
	)

	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			log.Fatalf("invalid postgres config: %v", err)
		}
		cleanup = pool.Close

		if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalf("apply schema: %v", err)
		}

		boardRepo = pgboardrepo.NewRepo(pool)
		topicRepo = pgtopicrepo.NewRepo(pool)
		idemRepo = pgidem.NewRepo(pool)
	default:
		boardRepo = memboardrepo.NewRepo()
		topicRepo = memtopicrepo.NewRepo()
		idemRepo = memidem.NewRepo()
	}

	if cleanup != nil {
		defer cleanup()
	}

	boardSvc := boards.NewService(boardRepo, clk)
	topicSvc := topics.NewService(topicRepo, boardRepo, clk)
	idemSvc := appidem.NewService(idemRepo, clk)

	bypass := make([]httpapi.Route, 0, len(cfg.IdempotencyBypass))
	for _, rt := range cfg.IdempotencyBypass {
		bypass = append(bypass, httpapi.Route{Method: rt.Method, Path: rt.Path})
	}

	api := httpapi.NewServer(boardSvc, topicSvc)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: httpapi.NewDevAuthMiddleware(cfg.DevSubject),
		IdempotencyMiddleware: httpapi.NewIdempotencyMiddleware(idemSvc, httpapi.IdempotencyOptions{
			Bypass: bypass,
			Logger: logger,
		}),
	})

	rp := reaper.New(idemSvc, cfg.IdempotencyRetention, logger)
	stopReaper, err := rp.Start(cfg.ReapSchedule)
	if err != nil {
		log.Fatalf("invalid reap schedule: %v", err)
	}
	defer stopReaper()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening", "port", cfg.Port, "backend", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
