package router

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/echoexam/echo-backend/internal/config"
	"github.com/echoexam/echo-backend/internal/handler"
	"github.com/echoexam/echo-backend/internal/metrics"
	"github.com/echoexam/echo-backend/internal/middleware"
	"github.com/echoexam/echo-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam    *handler.ExamHandler
	Session *handler.SessionHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config, paths *config.Paths) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(metrics.Middleware())

	// Compress API responses. The audio tree is mp3 and served raw.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Skipper: func(c *gin.Context) bool {
			return strings.HasPrefix(c.Request.URL.Path, "/audio_cache/")
		},
	}))

	// Synthesized prompts and student recordings. Content-addressed
	// files never change, so clients may cache them hard.
	audioGroup := router.Group("/audio_cache")
	audioGroup.Use(middleware.ImmutableCache(31536000))
	{
		audioGroup.Static("/", paths.AudioCacheDir())
	}

	// Health check and metrics scrape.
	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", metrics.Handler())

	// ─── Session API ───────────────────────────────────────────────────
	api := router.Group("/api/v1")
	{
		api.GET("/exams", handlers.Exam.ListExams)
		api.GET("/exams/:filename", handlers.Exam.DescribeExam)

		// Starting a session kicks off synthesis work, so creation gets
		// its own per-IP budget.
		startLimiter := middleware.NewRateLimiter(cfg.SessionStartRate, time.Minute)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", startLimiter.Middleware(), handlers.Session.Start)
			sessions.GET("/:id/question", handlers.Session.CurrentQuestion)
			sessions.POST("/:id/answers", handlers.Session.SubmitAnswer)
			sessions.GET("/:id/audio-status", handlers.Session.AudioStatus)
			sessions.GET("/:id/status", handlers.Session.Status)
			sessions.GET("/:id/results", handlers.Session.FinalResults)
		}
	}

	// ─── WebSocket Group ───────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:id/progress", handlers.WS.ProgressStream)
	}

	return router
}
