package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
  "github.com/twinmind/meeting-backend/internal/handlers"
  "github.com/twinmind/meeting-backend/internal/middleware"
)

type RouterConfig struct {
  CORSAllowOrigins  []string
  TracingEnabled    bool
  AuthHandler       *handlers.AuthHandler
  AuthMiddleware    *middleware.AuthMiddleware
  MeetingHandler    *handlers.MeetingHandler
  SummaryHandler    *handlers.SummaryHandler
  QAHandler         *handlers.QAHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  if cfg.TracingEnabled {
    router.Use(otelgin.Middleware("meeting-backend"))
  }

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins:     cfg.CORSAllowOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  router.POST("/login", cfg.AuthHandler.Login)

// ===============
// || Protected ||
// ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Meetings
  protected.POST("/meetings/init", cfg.MeetingHandler.InitMeeting)
  protected.POST("/meeting/chunk", cfg.MeetingHandler.IngestChunk)
  protected.POST("/meetings/searches", cfg.MeetingHandler.SaveSearches)
  protected.GET("/meetings/past", cfg.MeetingHandler.PastMeetings)
  protected.GET("/meetings/find", cfg.MeetingHandler.FindMeeting)
  // Summary + transcript search
  protected.POST("/generate-structured-summary", cfg.SummaryHandler.GenerateSummary)
  protected.POST("/search-in-transcript", cfg.QAHandler.SearchTranscript)

  return router
}
