package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/twinmind/meeting-backend/internal/logger"
)

// TranscriptionService turns one uploaded audio chunk into text.
type TranscriptionService interface {
  Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type whisperTranscriptionService struct {
  log    *logger.Logger
  client OpenAIClient
}

func NewWhisperTranscriptionService(log *logger.Logger, client OpenAIClient) (TranscriptionService, error) {
  if client == nil {
    return nil, fmt.Errorf("openai client required")
  }
  return &whisperTranscriptionService{
    log:    log.With("service", "WhisperTranscriptionService"),
    client: client,
  }, nil
}

func (s *whisperTranscriptionService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
  filename := "chunk" + extensionForMime(mimeType)
  text, err := s.client.TranscribeAudio(ctx, audio, filename, mimeType)
  if err != nil {
    return "", fmt.Errorf("whisper transcription: %w", err)
  }
  return text, nil
}

func extensionForMime(mimeType string) string {
  mt := strings.ToLower(mimeType)
  if i := strings.Index(mt, ";"); i >= 0 {
    mt = strings.TrimSpace(mt[:i])
  }
  switch mt {
  case "audio/webm":
    return ".webm"
  case "audio/wav", "audio/x-wav", "audio/wave":
    return ".wav"
  case "audio/mpeg", "audio/mp3":
    return ".mp3"
  case "audio/mp4", "audio/m4a", "audio/x-m4a":
    return ".m4a"
  case "audio/ogg":
    return ".ogg"
  case "audio/flac", "audio/x-flac":
    return ".flac"
  default:
    return ".bin"
  }
}
