package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/examportal/examportal-backend/internal/clock"
	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/database"
	"github.com/examportal/examportal-backend/internal/handler"
	"github.com/examportal/examportal-backend/internal/logger"
	"github.com/examportal/examportal-backend/internal/repository"
	"github.com/examportal/examportal-backend/internal/router"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/examportal/examportal-backend/internal/validator"
	"github.com/examportal/examportal-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Exam Portal Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	permissionRepo := repository.NewPermissionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	clk := clock.System{}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo)
	accessService := service.NewAccessService(userRepo, examRepo, questionRepo, permissionRepo, resultRepo, clk)
	attemptService := service.NewAttemptService(permissionRepo, attemptRepo, resultRepo, examRepo, questionRepo, accessService, rdb, clk, log)
	assignmentService := service.NewAssignmentService(userRepo, examRepo, permissionRepo, attemptRepo, rdb, clk, log)
	userService := service.NewUserService(userRepo, permissionRepo, resultRepo, authService, rdb, clk, log)
	examService := service.NewExamService(examRepo, questionRepo, rdb, log)
	questionService := service.NewQuestionService(questionRepo, examService)
	resultService := service.NewResultService(resultRepo, userRepo, examRepo)
	settingService := service.NewSettingService(settingRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, userService),
		Portal:     handler.NewPortalHandler(accessService, attemptService, examService),
		AdminUser:  handler.NewAdminUserHandler(userService),
		Exam:       handler.NewExamHandler(examService),
		Question:   handler.NewQuestionHandler(questionService),
		Assignment: handler.NewAssignmentHandler(assignmentService),
		Result:     handler.NewResultHandler(resultService),
		Setting:    handler.NewSettingHandler(settingService),
		System:     handler.NewSystemHandler(pool, rdb, log),
		WS:         handler.NewWSHandler(attemptService, clk, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(pool, rdb, log)
	notifierWorker := worker.NewNotifierWorker(pool, rdb, log)

	go autosaveWorker.Start(workerCtx)
	go notifierWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
