package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchmaker/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	tokens *service.SessionTokenService,
	sessionH *SessionHandler,
	matchH *MatchHandler,
	profileH *ProfileHandler,
	documentH *DocumentHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.POST("/sessions", sessionH.CreateSession)

	sessions := r.Group("/sessions/:id", SessionAuthMiddleware(tokens))
	sessions.POST("/prefetch", matchH.Prefetch)
	sessions.POST("/matches", matchH.StartMatches)
	sessions.GET("/matches", matchH.GetMatches)
	sessions.GET("/storage", matchH.GetStorage)
	sessions.GET("/events", matchH.StreamEvents)

	profiles := r.Group("/profiles")
	profiles.GET("/scrape", profileH.Scrape)
	profiles.PUT("/:user_id/answers", profileH.SaveAnswers)
	profiles.GET("/:user_id/answers", profileH.GetAnswers)

	r.POST("/documents/ocr", documentH.ExtractPDF)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json salvo en el stream SSE.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasSuffix(c.Request.URL.Path, "/events") {
			c.Writer.Header().Set("Content-Type", "application/json")
		}
		c.Next()
	}
}
