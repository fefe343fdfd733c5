package router

import (
	"time"

	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/handler"
	"github.com/examportal/examportal-backend/internal/middleware"
	"github.com/examportal/examportal-backend/internal/response"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Portal     *handler.PortalHandler
	AdminUser  *handler.AdminUserHandler
	Exam       *handler.ExamHandler
	Question   *handler.QuestionHandler
	Assignment *handler.AssignmentHandler
	Result     *handler.ResultHandler
	Setting    *handler.SettingHandler
	System     *handler.SystemHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", handlers.System.Live)

	// ─── 1. Auth Group (Public + Profile) ──────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireAnyJWT(authService), handlers.Auth.Me)
		auth.POST("/change-password", middleware.RequireAnyJWT(authService), handlers.Auth.ChangePassword)
	}

	// ─── 2. Portal Group (Participant JWT) ─────────────────────────────
	portalAPI := router.Group("/api/v1/portal")
	portalAPI.Use(middleware.RequireParticipantJWT(authService))
	{
		portalAPI.GET("/dashboard", handlers.Portal.Dashboard)
		portalAPI.GET("/exams/:exam_id/access", handlers.Portal.Access)
		portalAPI.POST("/exams/:exam_id/start", handlers.Portal.StartAttempt)
		portalAPI.GET("/attempts/:attempt_id", handlers.Portal.State)
		portalAPI.GET("/attempts/:attempt_id/paper", handlers.Portal.Paper)
		portalAPI.POST("/attempts/:attempt_id/answers", handlers.Portal.RecordAnswer)
		portalAPI.POST("/attempts/:attempt_id/submit", handlers.Portal.Submit)
	}

	// ─── 3. WebSocket Group (Participant WS Auth) ──────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireParticipantWSAuth(authService))
	{
		ws.GET("/portal/attempts/:attempt_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Admin Group (Admin JWT) ────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Participant management
		adminAPI.GET("/users", handlers.AdminUser.List)
		adminAPI.POST("/users", handlers.AdminUser.Create)
		adminAPI.DELETE("/users/:user_id", handlers.AdminUser.Delete)

		// Exam authoring
		adminAPI.GET("/exams", handlers.Exam.List)
		adminAPI.POST("/exams", handlers.Exam.Create)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.Get)
		adminAPI.PUT("/exams/:exam_id", handlers.Exam.Update)
		adminAPI.DELETE("/exams/:exam_id", handlers.Exam.Delete)

		// Questions
		adminAPI.GET("/exams/:exam_id/questions", handlers.Question.List)
		adminAPI.POST("/exams/:exam_id/questions", handlers.Question.Add)
		adminAPI.PUT("/questions/:question_id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:question_id", handlers.Question.Delete)

		// Assignment windows
		adminAPI.GET("/assignments", handlers.Assignment.List)
		adminAPI.POST("/assignments", handlers.Assignment.Create)
		adminAPI.PUT("/assignments/:assignment_id", handlers.Assignment.Update)
		adminAPI.DELETE("/assignments/:assignment_id", handlers.Assignment.Delete)

		// Results
		adminAPI.GET("/results", handlers.Result.List)
		adminAPI.GET("/exams/:exam_id/results", handlers.Result.ListByExam)

		// Settings
		adminAPI.GET("/settings", handlers.Setting.GetAll)
		adminAPI.PUT("/settings", handlers.Setting.UpdateAll)

		// System
		adminAPI.GET("/system/health", handlers.System.Health)
	}

	return router
}
