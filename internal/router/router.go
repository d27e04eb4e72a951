package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizbank/qbank-backend/internal/config"
	"github.com/quizbank/qbank-backend/internal/handler"
	"github.com/quizbank/qbank-backend/internal/middleware"
)

// Setup configures the Gin engine: CORS, global middlewares, the six
// question-bank routes, and the 404 fallback.
func Setup(questionHandler *handler.QuestionHandler, cfg *config.Config, log zerolog.Logger) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RequestID())
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Brotli())
	router.Use(middleware.ErrorHandler(log))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/questions", questionHandler.ListQuestions)
		api.POST("/create", questionHandler.CreateQuestion)
		api.GET("/search", questionHandler.SearchQuestions)
		api.DELETE("/delete", questionHandler.DeleteQuestion)
		api.PATCH("/edit", questionHandler.EditQuestion)
		api.GET("/count", questionHandler.CountQuestions)
	}

	router.NoRoute(middleware.NotFoundHandler())

	return router
}
