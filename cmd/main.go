package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/config"
	"github.com/Plexi09/chatroom/internal/gateway"
	"github.com/Plexi09/chatroom/internal/handlers"
	"github.com/Plexi09/chatroom/internal/logger"
	"github.com/Plexi09/chatroom/internal/middlewares"
	"github.com/Plexi09/chatroom/internal/models"
	"github.com/Plexi09/chatroom/internal/repositories"
	"github.com/Plexi09/chatroom/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting chatroom gateway")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize token generator
	tokenGenerator := auth.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	sessionRepo := repositories.NewSessionRepository(db, logger.Logger)
	messageRepo := repositories.NewMessageRepository(db, logger.Logger)
	securityLogRepo := repositories.NewSecurityLogRepository(db, logger.Logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, sessionRepo, tokenGenerator, logger.Logger)
	messageService := services.NewMessageService(messageRepo, logger.Logger)
	adminService := services.NewAdminService(userRepo, sessionRepo, securityLogRepo, logger.Logger)

	// Initialize the gateway
	hub := gateway.NewHub(gateway.NewRegistry(), messageService, logger.Logger)
	go hub.Run()

	panicService := services.NewPanicService(securityLogRepo, hub, services.PanicNotice{
		Message:  cfg.Panic.Message,
		Redirect: cfg.Panic.RedirectURL,
	}, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.JWT.TokenExpiry, logger.Logger)
	chatHandler := handlers.NewChatHandler(messageService, logger.Logger)
	wsHandler := handlers.NewWSHandler(hub, tokenGenerator, cfg.CORS.AllowedOrigins, logger.Logger)
	adminHandler := handlers.NewAdminHandler(adminService, panicService, logger.Logger)

	// Initialize auth middleware
	authMiddleware := auth.AuthMiddleware(tokenGenerator)
	adminMiddleware := auth.RoleMiddleware(tokenGenerator, models.RoleAdmin)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, 15*time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(1 * 1024 * 1024)) // 1MB

	r.Route("/api", func(r chi.Router) {
		// Session issuance
		authHandler.RegisterRoutes(r)

		// Chat routes: history behind auth middleware, websocket upgrade
		// verifying the same credential itself
		r.Route("/chat", func(r chi.Router) {
			r.Get("/ws", wsHandler.Serve)
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				chatHandler.RegisterRoutes(r)
			})
		})

		// Admin routes with role middleware
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminMiddleware)
			adminHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown: stop accepting requests, then drain the hub
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := hub.Shutdown(10 * time.Second); err != nil {
		logger.Logger.Error("Hub forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
