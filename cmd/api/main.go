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

	"github.com/credinica/loan-service/internal/config"
	"github.com/credinica/loan-service/internal/handler"
	"github.com/credinica/loan-service/internal/integrations/bcn"
	"github.com/credinica/loan-service/internal/middleware"
	"github.com/credinica/loan-service/internal/repository"
	"github.com/credinica/loan-service/internal/scheduler"
	"github.com/credinica/loan-service/internal/service"
	"github.com/credinica/loan-service/internal/utils/email"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := repository.Open(cfg.DBDriver, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewRepository(db, cfg.DBDriver)
	ctx := context.Background()
	if err := repo.Ping(ctx); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize layers
	rates := bcn.NewClient(cfg, logger)
	svc := service.NewService(repo, logger, cfg, service.WithExchangeRates(rates))
	h := handler.NewHandler(svc, logger, cfg)

	var notifier scheduler.Notifier
	if cfg.RemindersEnabled() {
		notifier = email.NewSender(cfg, logger)
	} else {
		logger.Warn("SMTP is not configured, overdue reminders are disabled")
	}
	jobs, err := scheduler.New(cfg, svc, notifier, logger, svc.Location())
	if err != nil {
		logger.Fatalf("Failed to configure scheduler: %v", err)
	}
	jobs.Start()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	h.Routes(r)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      middleware.CORS(cfg.CORSAllowedOrigins)(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	select {
	case <-jobs.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("Scheduled jobs did not finish before shutdown")
	}
}
