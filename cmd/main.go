package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brkpoint/tournament-platform/config"
	"github.com/brkpoint/tournament-platform/db"
	"github.com/brkpoint/tournament-platform/handlers"
	"github.com/brkpoint/tournament-platform/realtime"
	"github.com/brkpoint/tournament-platform/repositories"
	api "github.com/brkpoint/tournament-platform/routes"
	"github.com/brkpoint/tournament-platform/services"
	"github.com/brkpoint/tournament-platform/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const statusUpdateInterval = 30 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Загрузчик логотипов (Cloudflare R2). Без него приложение работает,
	// но загрузка логотипов будет падать с ошибкой конфигурации.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewR2Uploader(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Warn("R2 storage is not configured, logo uploads disabled")
	}

	// WebSocket Hub — события матчей и расписания
	wsHub := realtime.NewHub()
	go wsHub.Run()
	logger.Info("websocket hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	tableRepo := repositories.NewPostgresTableRepository(dbConn)
	slotRepo := repositories.NewPostgresSlotRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)

	// Сервисы
	authService := services.NewAuthService(userRepo)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		stageRepo,
		tableRepo,
		slotRepo,
		matchRepo,
		participantRepo,
		uploader,
		logger,
	)
	scheduleService := services.NewScheduleService(
		dbConn,
		stageRepo,
		tableRepo,
		slotRepo,
		matchRepo,
		participantRepo,
		wsHub,
		logger,
	)
	matchService := services.NewMatchService(
		dbConn,
		matchRepo,
		stageRepo,
		participantRepo,
		wsHub,
		logger,
	)
	logger.Info("services initialized")

	// Фоновое обновление статусов турниров по датам
	go func() {
		ticker := time.NewTicker(statusUpdateInterval)
		defer ticker.Stop()

		if err := tournamentService.AutoUpdateStatusesByDates(context.Background()); err != nil {
			logger.Error("initial tournament status update failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := tournamentService.AutoUpdateStatusesByDates(context.Background()); err != nil {
				logger.Error("periodic tournament status update failed", slog.Any("error", err))
			}
		}
	}()

	// HTTP-обработчики и маршруты
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		scheduleHandler,
		matchHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
