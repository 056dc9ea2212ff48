package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"github.com/anleague/tournament-engine/brackets"
	"github.com/anleague/tournament-engine/clients"
	"github.com/anleague/tournament-engine/config"
	"github.com/anleague/tournament-engine/db"
	"github.com/anleague/tournament-engine/handlers"
	"github.com/anleague/tournament-engine/repositories"
	api "github.com/anleague/tournament-engine/routes"
	"github.com/anleague/tournament-engine/services"
	"github.com/anleague/tournament-engine/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

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

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, flag uploads and exports disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	pastRepo := repositories.NewPostgresPastTournamentRepository(dbConn)
	logger.Info("repositories initialized")

	var commentaryGen services.CommentaryGenerator
	if cfg.CommentaryBaseURL != "" && cfg.CommentaryAPIKey != "" {
		commentaryGen = clients.NewCommentaryClient(cfg.CommentaryBaseURL, cfg.CommentaryAPIKey, cfg.CommentaryModel)
		logger.Info("commentary client initialized")
	} else {
		logger.Warn("commentary API not configured, using algorithmic summaries")
	}

	var notifier services.ResultNotifier
	if cfg.SMTPHost != "" {
		notifier = services.NewEmailService(services.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}, userRepo)
		logger.Info("email notifier initialized")
	} else {
		logger.Warn("SMTP not configured, result notifications disabled")
	}

	authService := services.NewAuthService(userRepo)
	teamService := services.NewTeamService(teamRepo, uploader)
	matchService := services.NewMatchService(
		matchRepo,
		teamRepo,
		commentaryGen,
		notifier,
		wsHub,
		logger,
		services.ScoreBounds{
			SimulatedMax: cfg.SimulatedMaxGoals,
			PlayedMax:    cfg.PlayedMaxGoals,
		},
		rand.New(rand.NewSource(time.Now().UnixNano())),
	)
	archiveService := services.NewArchiveService(tournamentRepo, pastRepo, wsHub, clockwork.NewRealClock(), logger)
	tournamentService := services.NewTournamentService(
		services.NewSQLTransactor(dbConn),
		tournamentRepo,
		matchRepo,
		teamRepo,
		matchService,
		archiveService,
		wsHub,
		uploader,
		logger,
		rand.New(rand.NewSource(time.Now().UnixNano()+1)),
	)
	adminService := services.NewAdminService(userRepo, teamRepo, matchRepo, tournamentRepo, pastRepo, uploader, logger)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	teamHandler := handlers.NewTeamHandler(teamService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, archiveService)
	matchHandler := handlers.NewMatchHandler(matchService, teamService)
	adminHandler := handlers.NewAdminHandler(adminService)
	wsHandler := handlers.NewWSHandler(wsHub, tournamentService, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		teamHandler,
		tournamentHandler,
		matchHandler,
		adminHandler,
		wsHandler,
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
