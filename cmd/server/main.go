package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chamahub/vsla-backend/internal/adapter/httpapi"
	"github.com/chamahub/vsla-backend/internal/adapter/repository/postgres"
	"github.com/chamahub/vsla-backend/internal/config"
	"github.com/chamahub/vsla-backend/internal/usecase/ledger"
	"github.com/chamahub/vsla-backend/internal/usecase/metrics"
	"github.com/chamahub/vsla-backend/internal/usecase/projector"
	"github.com/chamahub/vsla-backend/internal/usecase/reconciler"
	"github.com/chamahub/vsla-backend/internal/usecase/roster"
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

	// Initialize database (runs schema migrations)
	db, err := postgres.NewDB(cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize repositories
	groupRepo := postgres.NewGroupRepository(db)
	memberRepo := postgres.NewMemberRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	// Initialize services (use cases)
	ledgerService := ledger.NewService(groupRepo, memberRepo, transactionRepo, cfg.StipendDailyRate, logger)
	projectorService := projector.NewService(groupRepo, memberRepo, transactionRepo, logger)
	metricsService := metrics.NewService(groupRepo, memberRepo, transactionRepo, metrics.FullAttendance{}, cfg.SavingsCeiling)
	rosterService := roster.NewService(groupRepo, memberRepo, logger)
	reconcilerService := reconciler.NewService(groupRepo, memberRepo, projectorService, logger)

	// Schedule the periodic reconciliation sweep
	sched, err := reconcilerService.Schedule(cfg.ReconcileCron)
	if err != nil {
		logger.Fatalf("Failed to schedule reconciliation sweep: %v", err)
	}
	defer sched.Stop()

	// Setup router
	h := httpapi.NewHandler(ledgerService, metricsService, rosterService, projectorService, reconcilerService, logger)
	router := httpapi.NewRouter(h, cfg.JWTSecret, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	waitForShutdown(server, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server, logger *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Infof("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
