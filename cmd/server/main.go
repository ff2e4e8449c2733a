// Package main is the entry point for the municipal report server.
// It serves the report API, the dashboard analytics and CSV exports,
// the activity log with its integrity digest, and live report events.
//
// Storage is selected with STORE_BACKEND:
//   - memory: mock data set, lost on restart
//   - postgres: relational schema for reports, users, categories and activity
//   - mongo: geo-report collection; users, categories and activity stay in memory
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/urbanpulse/report-server/internal/activity"
	"github.com/urbanpulse/report-server/internal/config"
	"github.com/urbanpulse/report-server/internal/database"
	"github.com/urbanpulse/report-server/internal/events"
	"github.com/urbanpulse/report-server/internal/filter"
	"github.com/urbanpulse/report-server/internal/handlers"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/services"
	"github.com/urbanpulse/report-server/internal/store"
	"go.uber.org/zap"
)

// backend bundles the repositories of one STORE_BACKEND.
type backend struct {
	reports    store.ReportRepository
	users      store.UserRepository
	categories store.CategoryRepository
	activity   activity.Log
	close      func()
}

func openBackend(ctx context.Context, cfg *config.Config, seed *store.Seed, sugar *zap.SugaredLogger) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &backend{
			reports:    store.NewPostgresReports(db, sugar),
			users:      store.NewPostgresUsers(db),
			categories: store.NewPostgresCategories(db),
			activity:   activity.NewPostgres(db, sugar),
			close:      db.Close,
		}, nil

	case config.BackendMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, sugar)
		if err != nil {
			return nil, err
		}
		return &backend{
			reports:    store.NewMongoReports(client, db, sugar),
			users:      store.NewMemoryUsers(),
			categories: store.NewMemoryCategories(),
			activity:   activity.NewMemory(),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil

	default:
		return &backend{
			reports:    store.NewMemoryReports(seed.Reports),
			users:      store.NewMemoryUsers(),
			categories: store.NewMemoryCategories(),
			activity:   activity.NewMemory(),
			close:      func() {},
		}, nil
	}
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	var logger *zap.Logger
	if cfg.IsProduction() {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting report server",
		"version", config.Version,
		"port", cfg.Port,
		"env", cfg.Environment,
		"backend", cfg.StoreBackend,
	)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          config.Version,
			TracesSampleRate: 0.1,
		}); err != nil {
			sugar.Errorw("Sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed, err := store.LoadSeed(cfg.SeedFile)
	if err != nil {
		sugar.Fatalf("Failed to load seed data: %v", err)
	}

	be, err := openBackend(ctx, cfg, seed, sugar)
	if err != nil {
		sugar.Fatalf("Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer be.close()

	// Events: Redis when configured so every replica's dashboards see changes
	var broker events.Broker
	var closeBroker func()
	if cfg.RedisURL != "" {
		rb, err := events.NewRedis(ctx, cfg.RedisURL, sugar)
		if err != nil {
			sugar.Fatalf("Failed to connect to redis: %v", err)
		}
		broker, closeBroker = rb, func() { _ = rb.Close() }
	} else {
		hub := events.NewHub()
		broker, closeBroker = hub, hub.Close
	}

	var policy models.TransitionPolicy = models.Unrestricted{}
	if cfg.StrictStatusTransitions {
		policy = models.Strict{}
	}

	// Initialize services
	activitySvc := services.NewActivityService(be.activity, sugar)
	reportSvc := services.NewReportService(be.reports, activitySvc, broker, policy, sugar)
	userSvc := services.NewUserService(be.users, activitySvc, sugar)
	categorySvc := services.NewCategoryService(be.categories, activitySvc, sugar)
	digestSvc := services.NewDigestService(sugar)
	integrityWorker := services.NewIntegrityWorker(digestSvc, activitySvc, sugar)
	sessions := filter.NewSessions(cfg.SessionTTL, cfg.Timezone, sugar)

	if err := categorySvc.Seed(ctx, seed.Categories); err != nil {
		sugar.Fatalf("Failed to seed categories: %v", err)
	}
	if err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		sugar.Fatalf("Failed to create admin: %v", err)
	}

	// Background work
	go integrityWorker.Start(ctx, cfg.DigestRebuildInterval)
	go sessions.Janitor(ctx, cfg.SessionTTL/2)

	router := handlers.NewRouter(handlers.Deps{
		Reports:        reportSvc,
		Activity:       activitySvc,
		Users:          userSvc,
		Categories:     categorySvc,
		Digest:         digestSvc,
		Sessions:       sessions,
		Broker:         broker,
		Backend:        cfg.StoreBackend,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPM:   cfg.RateLimitRPM,
		Stop:           ctx.Done(),
		Logger:         logger,
	})

	var handler http.Handler = router
	if cfg.SentryDSN != "" {
		handler = sentryhttp.New(sentryhttp.Options{}).Handle(router)
	}

	// Create HTTP server. The event stream clears its own write deadline.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Ending subscriptions lets open event streams return during Shutdown.
	srv.RegisterOnShutdown(closeBroker)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Forced shutdown", "error", err)
	}

	sugar.Info("Server stopped")
}
