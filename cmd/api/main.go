package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/movermatch/marketplace-api/internal/config"
	"github.com/movermatch/marketplace-api/internal/email"
	alertHandler "github.com/movermatch/marketplace-api/internal/handler/alert"
	healthHandler "github.com/movermatch/marketplace-api/internal/handler/health"
	jobHandler "github.com/movermatch/marketplace-api/internal/handler/job"
	notificationHandler "github.com/movermatch/marketplace-api/internal/handler/notification"
	"github.com/movermatch/marketplace-api/internal/middleware"
	"github.com/movermatch/marketplace-api/internal/repository/postgres"
	"github.com/movermatch/marketplace-api/internal/router"
	assignmentService "github.com/movermatch/marketplace-api/internal/service/assignment"
	dispatchService "github.com/movermatch/marketplace-api/internal/service/dispatch"
	eventService "github.com/movermatch/marketplace-api/internal/service/event"
	matcherService "github.com/movermatch/marketplace-api/internal/service/matcher"
	notificationService "github.com/movermatch/marketplace-api/internal/service/notification"
	"github.com/movermatch/marketplace-api/pkg/logger"
	redisBroker "github.com/movermatch/marketplace-api/pkg/messaging/redis"
	"github.com/movermatch/marketplace-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	jobRepo := postgres.NewJobRepository(&base)
	alertRepo := postgres.NewAlertRepository(&base)
	moverRepo := postgres.NewMoverRepository(&base)
	notificationRepo := postgres.NewNotificationRepository(&base)

	engineMetrics := metrics.New("marketplace")

	// The broker is optional plumbing: engine events are fire-and-forget,
	// so a missing Redis degrades to a no-op emitter rather than a crash.
	var emitter eventService.Emitter = eventService.NopEmitter{}
	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &appLogger.ZL)
	if err != nil {
		appLogger.Warn("redis unavailable, engine events disabled", "error", err.Error())
	} else {
		defer broker.Close()
		emitter = eventService.NewService(broker, appLogger)
	}

	emailSvc := email.NewSMTPService(cfg.SMTP)
	notificationSvc := notificationService.NewService(notificationRepo, appLogger)
	matcherSvc := matcherService.NewService(moverRepo, cfg.Engine.CandidateLimit, cfg.Engine.MatcherCacheTTL)
	dispatchSvc := dispatchService.NewService(
		jobRepo, alertRepo, matcherSvc, notificationSvc, emailSvc,
		emitter, appLogger, engineMetrics, cfg.Engine,
	)
	assignmentSvc := assignmentService.NewService(
		jobRepo, alertRepo, moverRepo, notificationSvc, emailSvc,
		emitter, appLogger, engineMetrics,
	)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db),
		jobHandler.NewHandler(jobRepo, dispatchSvc, assignmentSvc),
		alertHandler.NewHandler(assignmentSvc),
		notificationHandler.NewHandler(notificationSvc),
		router.RouterConfig{
			RateLimit:     rate.Limit(100),
			RateBurst:     200,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "marketplace_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.Info("api server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
