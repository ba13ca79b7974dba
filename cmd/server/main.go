package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	grpcapi "sharenet-backend/internal/api/grpc"
	httpapi "sharenet-backend/internal/api/http"
	"sharenet-backend/internal/config"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/notify"
	"sharenet-backend/internal/repository/postgres"
	"sharenet-backend/internal/security"
	"sharenet-backend/internal/service"
	"sharenet-backend/internal/session"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Optional KEY=VALUE file loaded before environment overrides")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting ShareNet backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_port", cfg.Server.GRPCPort)
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	// Token revocation
	var sessions session.Store = session.NoopStore{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to ping redis", "addr", cfg.Redis.Addr, "error", err)
			log.Fatalf("Failed to ping redis: %v", err)
		}
		sessions = session.NewRedisStore(rdb, cfg.AccessTokenTTL())
		logger.Info("Token revocation store connected", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("Redis not configured, logout will not revoke tokens")
	}

	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Post-commit delivery
	dispatcher, err := notify.FromConfig(ctx, cfg.Notify, store.UserRepository)
	if err != nil {
		logger.Error("Failed to initialize notification channels", "error", err)
		log.Fatalf("Failed to initialize notification channels: %v", err)
	}
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher.Start(dispatchCtx)

	// Initialize Services
	requestSvc := service.NewRequestService(store, store.RequestRepository, dispatcher)
	resourceSvc := service.NewResourceService(store, store.ResourceRepository, dispatcher)
	moderationSvc := service.NewModerationService(store, store.ReportRepository, dispatcher)
	adminSvc := service.NewAdminService(store, store.UserRepository, store.RequestRepository, sessions, dispatcher)
	authSvc := service.NewAuthService(store.UserRepository, tokenManager, sessions)
	noteSvc := service.NewNotificationService(store.NotificationRepository)
	reviewSvc := service.NewReviewService(store, store.ReviewRepository, dispatcher)
	transactionSvc := service.NewTransactionService(store.TransactionRepository)

	router := httpapi.NewRouter(httpapi.Handlers{
		Auth:          httpapi.NewAuthHandler(authSvc),
		Resources:     httpapi.NewResourceHandler(resourceSvc),
		Requests:      httpapi.NewRequestHandler(requestSvc, reviewSvc, transactionSvc),
		Notifications: httpapi.NewNotificationHandler(noteSvc),
		Admin:         httpapi.NewAdminHandler(moderationSvc, adminSvc),
		DB:            store,
	}, httpapi.NewMiddleware(tokenManager, sessions))

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Optional gRPC health endpoint
	var health *grpcapi.Server
	if cfg.Server.GRPCPort != 0 {
		lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		health = grpcapi.NewServer(store)
		go health.WatchDatabase(ctx, 15*time.Second)
		go func() {
			logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
			if err := health.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown did not complete", "error", err)
	}
	if health != nil {
		health.GracefulStop()
	}

	stopDispatch()
	dispatcher.Wait()
	logger.Info("ShareNet backend stopped")
}
