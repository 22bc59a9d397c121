package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/audiocache"
	"github.com/echoexam/echo-backend/internal/config"
	"github.com/echoexam/echo-backend/internal/examdef"
	"github.com/echoexam/echo-backend/internal/grading"
	"github.com/echoexam/echo-backend/internal/handler"
	"github.com/echoexam/echo-backend/internal/logger"
	"github.com/echoexam/echo-backend/internal/metrics"
	"github.com/echoexam/echo-backend/internal/registry"
	"github.com/echoexam/echo-backend/internal/router"
	"github.com/echoexam/echo-backend/internal/service"
	"github.com/echoexam/echo-backend/internal/speech"
	"github.com/echoexam/echo-backend/internal/validator"
	"github.com/echoexam/echo-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).With().Timestamp().Logger().
			Fatal().Err(err).Msg("Invalid configuration")
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("model", cfg.OmniModel).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Echo Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Register Metrics ──────────────────────────────────────────────
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Prepare Data Directories ──────────────────────────────────────
	paths := config.NewPaths(cfg.DataDir)
	if err := paths.EnsureAll(); err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("Failed to create data directories")
	}

	// ─── Validate Voice Configuration ──────────────────────────────────
	// A bad voice name would otherwise surface on the first synthesis
	// call, mid-exam, with a student already waiting.
	if err := speech.ValidateVoice(cfg.OmniModel, cfg.InstructionVoice); err != nil {
		log.Fatal().Err(err).Msg("Invalid INSTRUCTION_VOICE")
	}
	if err := speech.ValidateVoice(cfg.OmniModel, cfg.ResponseVoice); err != nil {
		log.Fatal().Err(err).Msg("Invalid RESPONSE_VOICE")
	}

	// ─── Initialize LLM Clients ────────────────────────────────────────
	synth := speech.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.OmniModel, cfg.SynthesisTimeout, log)
	grader := grading.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.OmniModel, cfg.GradingTimeout, log)

	// ─── Initialize Audio Storage ──────────────────────────────────────
	ttsCache := audiocache.NewCache(paths.TTSCacheDir(), "/audio_cache/tts", cfg.OmniModel, synth, log)
	answers := audiocache.NewAnswerStore(paths.StudentAnswersDir(), "/audio_cache/student_answers")

	// ─── Initialize Session Registry ───────────────────────────────────
	store := registry.NewMemoryStore(cfg.SessionTTL, log)
	go store.Start(ctx)

	// ─── Start Background Orchestrator ─────────────────────────────────
	orchestrator := worker.New(grader, ttsCache, answers, cfg.InstructionVoice, cfg.ResponseVoice, log)

	// ─── Initialize Services ──────────────────────────────────────────
	exams := examdef.NewLoader(paths.ExamsDir(), log)
	examService := service.NewExamService(exams, log)
	sessionService := service.NewSessionService(exams, store, orchestrator, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:    handler.NewExamHandler(examService, log),
		Session: handler.NewSessionHandler(sessionService, log),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(store),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, paths)

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

	// 2. Stop the registry sweeper and wait for in-flight grading to
	// finish. Tasks run on Background contexts so draining never cancels
	// a grade a student already submitted.
	cancel()
	if drained := orchestrator.Drain(30 * time.Second); !drained {
		log.Warn().Msg("Grading tasks still running at shutdown deadline")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
