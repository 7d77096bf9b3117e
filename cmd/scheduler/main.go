package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/movermatch/marketplace-api/internal/config"
	"github.com/movermatch/marketplace-api/internal/email"
	"github.com/movermatch/marketplace-api/internal/repository/postgres"
	"github.com/movermatch/marketplace-api/internal/scheduler"
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

	engineMetrics := metrics.New("marketplace_scheduler")

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

	sched := scheduler.New(
		jobRepo, alertRepo, dispatchSvc, notificationSvc, emailSvc,
		emitter, appLogger, engineMetrics, cfg.Engine, cfg.Scheduler,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Start(ctx)

	// Liveness and metrics for the orchestrator; no business routes here.
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"UP"}`)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"DOWN"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"UP"}`)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Scheduler.HealthPort),
		Handler: mux,
	}
	go func() {
		appLogger.Info("scheduler health server starting", "port", cfg.Scheduler.HealthPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start health server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down scheduler")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("health server forced to shutdown")
	}

	appLogger.Info("scheduler exited properly")
}
