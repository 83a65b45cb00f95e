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

	"github.com/Dosada05/tournament-bracket/brackets"
	"github.com/Dosada05/tournament-bracket/config"
	"github.com/Dosada05/tournament-bracket/db"
	"github.com/Dosada05/tournament-bracket/handlers"
	"github.com/Dosada05/tournament-bracket/repositories"
	api "github.com/Dosada05/tournament-bracket/routes"
	"github.com/Dosada05/tournament-bracket/services"
	"github.com/Dosada05/tournament-bracket/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()

	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	// Хранилище архивов (Cloudflare R2) необязательно
	var objectStore storage.ObjectStore
	if cfg.R2.Enabled() {
		objectStore, err = storage.NewR2Store(ctx, cfg.R2)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 store initialized", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("Cloudflare R2 not configured, standings archive disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	hubDone := make(chan struct{})
	go func() {
		wsHub.Run(ctx)
		close(hubDone)
	}()

	// Инициализация репозиториев
	transactor := repositories.NewPostgresTransactor(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	scoreRepo := repositories.NewPostgresMatchScoreRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)

	// Инициализация сервисов
	progressionService := services.NewProgressionService(matchRepo, scoreRepo, logger)
	bracketService := services.NewBracketService(
		transactor,
		tournamentRepo,
		participantRepo,
		matchRepo,
		scoreRepo,
		standingRepo,
		ratingRepo,
		progressionService,
		wsHub,
		logger,
	)
	standingsService := services.NewStandingsService(tournamentRepo, participantRepo, matchRepo, scoreRepo, standingRepo, logger)
	ratingService := services.NewRatingService(transactor, participantRepo, matchRepo, playerRepo, ratingRepo, logger)
	archiveService := services.NewArchiveService(objectStore, logger)
	tournamentService := services.NewTournamentService(
		transactor,
		tournamentRepo,
		matchRepo,
		standingRepo,
		bracketService,
		standingsService,
		ratingService,
		archiveService,
		wsHub,
		logger,
	)
	matchService := services.NewMatchService(
		transactor,
		tournamentRepo,
		matchRepo,
		scoreRepo,
		progressionService,
		bracketService,
		tournamentService,
		wsHub,
		logger,
	)

	// Запуск планировщика автоматического старта турниров
	if cfg.SchedulerInterval > 0 {
		go runScheduler(ctx, tournamentService, cfg.SchedulerInterval, logger)
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router,
		api.Handlers{
			Tournament: handlers.NewTournamentHandler(tournamentService, bracketService, standingsService),
			Match:      handlers.NewMatchHandler(matchService, ratingService),
			Player:     handlers.NewPlayerHandler(ratingService),
			WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
		},
		api.Options{
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Logger:         logger,
		},
	)

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			<-hubDone
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}

	stop()
	<-hubDone
	logger.Info("application exited")
}

// runScheduler переводит турниры с наступившей датой старта в статус ongoing.
func runScheduler(ctx context.Context, ts services.TournamentService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("tournament auto-start scheduler started", slog.Duration("interval", interval))

	run := func() {
		if _, err := ts.AutoStartDue(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scheduler run failed", slog.Any("error", err))
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			logger.Info("tournament auto-start scheduler stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
