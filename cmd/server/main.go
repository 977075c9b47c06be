package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memberbase/memberbase/internal/api"
	"github.com/memberbase/memberbase/internal/api/cron"
	v1 "github.com/memberbase/memberbase/internal/api/v1"
	"github.com/memberbase/memberbase/internal/cache"
	"github.com/memberbase/memberbase/internal/clock"
	"github.com/memberbase/memberbase/internal/config"
	"github.com/memberbase/memberbase/internal/email"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/postgres"
	pgrepo "github.com/memberbase/memberbase/internal/repository/postgres"
	"github.com/memberbase/memberbase/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.GetLogger().Fatalw("failed to load configuration", "error", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		logger.GetLogger().Fatalw("failed to initialize logger", "error", err)
	}
	defer log.Sync()

	db, err := postgres.NewClient(cfg, log)
	if err != nil {
		log.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	emailClient := email.NewClient(cfg)
	clk := clock.NewSystem()

	params := service.ServiceParams{
		Logger:         log,
		Config:         cfg,
		Clock:          clk,
		Cache:          cache.GetInMemoryCache(),
		GraceRepo:      pgrepo.NewGraceRepository(db, log),
		MembershipRepo: pgrepo.NewMembershipRepository(db, log),
		LevelRepo:      pgrepo.NewLevelRepository(db, log),
		PaymentRepo:    pgrepo.NewPaymentRepository(db, log),
		EmailSender:    email.NewService(emailClient, log),
	}

	lifecycle := service.NewGraceLifecycleService(params)
	renewals := service.NewRenewalService(params)
	notifications := service.NewNotificationService(params)
	donations := service.NewDonationReportService(params)

	router := api.NewRouter(api.Handlers{
		Grace:     v1.NewGraceHandler(lifecycle, notifications, log),
		Renewals:  v1.NewRenewalHandler(renewals, log),
		Donations: v1.NewDonationReportHandler(donations, log),
		GraceCron: cron.NewGraceCronHandler(lifecycle, notifications, db, clk, log),
	}, cfg, log)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		log.Infow("starting server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
	log.Infow("server stopped")
}
