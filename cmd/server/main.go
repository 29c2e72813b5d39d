package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"cedrus/internal/auth"
	"cedrus/internal/domain"
	"cedrus/internal/events"
	"cedrus/internal/history"
	"cedrus/internal/identity"
	"cedrus/internal/locker"
	"cedrus/internal/platform/config"
	"cedrus/internal/platform/httpserver"
	"cedrus/internal/platform/kafka"
	"cedrus/internal/platform/logger"
	"cedrus/internal/platform/metrics"
	"cedrus/internal/platform/redis"
	"cedrus/internal/storage"
	"cedrus/internal/storage/postgres"
	httptransport "cedrus/internal/transport/http"
	"cedrus/internal/workflow"
	wfmetrics "cedrus/internal/workflow/metrics"
	"cedrus/pkg/platform/tx"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roles := identity.NewStaticRoles()
	for _, grant := range cfg.RoleGrants {
		userID, err := uuid.Parse(grant.UserID)
		if err != nil {
			log.Warn("skipping malformed role grant", "user_id", grant.UserID)
			continue
		}
		roles.Grant(userID, domain.Role(grant.Role))
	}

	stores, runner, closeDB, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	wfOpts := []workflow.Option{
		workflow.WithLogger(log),
		workflow.WithMetrics(wfmetrics.New()),
		workflow.WithRunner(runner),
	}

	if cfg.RedisURL != "" {
		redisClient, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		wfOpts = append(wfOpts, workflow.WithLocker(locker.NewRedisLocker(redisClient, cfg.LockTTL)))
		log.Info("transition locking enabled", "ttl", cfg.LockTTL)
	}

	// Events flow through an in-process worker; the log sink always runs and
	// Kafka joins when brokers are configured.
	sinks := []events.Sink{events.NewLogSink(log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := kafka.New(ctx, cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopic(ctx, cfg.KafkaTopic, 1); err != nil {
			return err
		}
		sinks = append(sinks, events.NewKafkaSink(kafkaClient, cfg.KafkaTopic))
		log.Info("kafka event sink enabled", "topic", cfg.KafkaTopic)
	}

	inbox := make(chan events.Event, 256)
	worker := events.NewWorker(inbox, log, sinks...)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("event worker stopped", "error", err)
		}
	}()
	emitter := events.NewPublisher(events.NewChannelSink(inbox, log))

	trail := history.NewService(stores.statusLog)
	wfOpts = append(wfOpts, workflow.WithEmitter(emitter))
	wf := workflow.NewService(roles, stores.audits, stores.findings, stores.reviews, stores.certifications, trail, wfOpts...)

	jwtService := auth.NewJWTService(cfg.JWTSigningKey, "cedrus")
	handler := httptransport.New(wf, stores.audits, trail, jwtService, log)
	router := httptransport.NewRouter(handler, metrics.New(), log)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting cedrus", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-workerDone
	log.Info("shutdown complete")
	return nil
}

type storeSet struct {
	audits         workflow.AuditStore
	findings       workflow.FindingReader
	reviews        workflow.ReviewReader
	certifications workflow.CertificationReader
	statusLog      storage.StatusLogStore
}

// buildStores picks PostgreSQL when configured, falling back to in-memory
// stores for local development.
func buildStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*storeSet, tx.Runner, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("no database configured, using in-memory stores")
		return &storeSet{
			audits:         storage.NewInMemoryAuditStore(),
			findings:       storage.NewInMemoryFindingStore(),
			reviews:        storage.NewInMemoryTechnicalReviewStore(),
			certifications: storage.NewInMemoryCertificationStore(),
			statusLog:      storage.NewInMemoryStatusLogStore(),
		}, tx.NopRunner{}, func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return &storeSet{
		audits:         postgres.NewAuditStore(db),
		findings:       postgres.NewFindingStore(db),
		reviews:        postgres.NewTechnicalReviewStore(db),
		certifications: postgres.NewCertificationStore(db),
		statusLog:      postgres.NewStatusLogStore(db),
	}, tx.NewSQLRunner(db), func() { closeQuietly(db, log) }, nil
}

func closeQuietly(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}
}
