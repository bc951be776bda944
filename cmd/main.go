package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"
  "github.com/twinmind/meeting-backend/internal/config"
  "github.com/twinmind/meeting-backend/internal/db"
  "github.com/twinmind/meeting-backend/internal/handlers"
  "github.com/twinmind/meeting-backend/internal/logger"
  "github.com/twinmind/meeting-backend/internal/middleware"
  "github.com/twinmind/meeting-backend/internal/observability"
  "github.com/twinmind/meeting-backend/internal/repos"
  "github.com/twinmind/meeting-backend/internal/server"
  "github.com/twinmind/meeting-backend/internal/services"
  "github.com/twinmind/meeting-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Config
  cfg, err := config.Load(log)
  if err != nil {
    log.Error("Failed to load config", "error", err)
    os.Exit(1)
  }

  // Tracing (opt-in)
  shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: "meeting-backend",
    Environment: utils.GetEnv("DEPLOY_ENV", "local", log),
  })
  if shutdownOTel != nil {
    defer func() {
      ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
      defer cancel()
      _ = shutdownOTel(ctx)
    }()
  }

  // Database
  log.Info("Setting up database from main...")
  dbService, err := db.NewService(log)
  if err != nil {
    log.Error("Database init failed", "error", err)
    os.Exit(1)
  }
  if err = dbService.AutoMigrateAll(); err != nil {
    log.Error("Database auto migration failed", "error", err)
    os.Exit(1)
  }
  theDB := dbService.DB()

  // Repos
  log.Info("Setting up repos from main...")
  meetingRepo := repos.NewMeetingRepo(theDB, log)

  // Services
  log.Info("Setting up services from main...")
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }

  var transcriber services.TranscriptionService
  switch strings.ToLower(utils.GetEnv("TRANSCRIBE_PROVIDER", "whisper", log)) {
  case "gcp":
    transcriber, err = services.NewGCPSpeechService(log)
  default:
    transcriber, err = services.NewWhisperTranscriptionService(log, openaiClient)
  }
  if err != nil {
    log.Error("Could not init transcription provider", "error", err)
    os.Exit(1)
  }

  var archive services.AudioArchiveService
  if strings.TrimSpace(os.Getenv("MEETING_AUDIO_BUCKET")) != "" {
    archive, err = services.NewGCSArchiveService(log)
    if err != nil {
      log.Warn("Could not init audio archive, continuing without it", "error", err)
      archive = nil
    }
  }

  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "", log)
  verifier, err := services.NewJWTVerifier(log, jwtSecretKey)
  if err != nil {
    log.Error("Could not init token verifier", "error", err)
    os.Exit(1)
  }
  if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
    cached, cErr := services.NewCachedTokenVerifier(log, verifier)
    if cErr != nil {
      log.Warn("Could not init verifier cache, continuing without it", "error", cErr)
    } else {
      verifier = cached
    }
  }

  meetingService := services.NewMeetingService(log, meetingRepo, transcriber, archive)
  summaryService := services.NewSummaryService(log, meetingRepo, openaiClient)
  qaService := services.NewQAService(log, openaiClient)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(verifier)
  meetingHandler := handlers.NewMeetingHandler(log, meetingService)
  summaryHandler := handlers.NewSummaryHandler(summaryService)
  qaHandler := handlers.NewQAHandler(qaService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, verifier)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    CORSAllowOrigins: cfg.CORSAllowOrigins,
    TracingEnabled:   observability.Enabled(),
    AuthHandler:      authHandler,
    AuthMiddleware:   authMiddleware,
    MeetingHandler:   meetingHandler,
    SummaryHandler:   summaryHandler,
    QAHandler:        qaHandler,
  })

  fmt.Printf("Server listening on :%s\n", cfg.Port)
  if err := router.Run(":" + cfg.Port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
