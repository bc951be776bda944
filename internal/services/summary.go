package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"

  "github.com/twinmind/meeting-backend/internal/apperr"
  "github.com/twinmind/meeting-backend/internal/logger"
  "github.com/twinmind/meeting-backend/internal/repos"
  "github.com/twinmind/meeting-backend/internal/types"
)

const summaryPromptTemplate = "You are a helpful assistant. Summarize the following meeting transcript. Make sure you use the transcript to generate a detailed summary. " +
  "The meeting may have multiple participants. Return your output as a JSON object in the format:\n" +
  "{ \"overview\": [\"...\"], \"actionables\": [\"...\"], \"notes\": \"...\" }\n\n" +
  "Transcript:\n%s"

// SummaryService drives one summarization call and persists the result. The
// caller supplies the transcript text, which keeps summary generation
// decoupled from ingestion timing.
type SummaryService interface {
  Generate(ctx context.Context, meetingID, ownerUID, transcriptText string) (*types.Summary, error)
}

type summaryService struct {
  log         *logger.Logger
  meetingRepo repos.MeetingRepo
  client      OpenAIClient
}

func NewSummaryService(log *logger.Logger, meetingRepo repos.MeetingRepo, client OpenAIClient) SummaryService {
  serviceLog := log.With("service", "SummaryService")
  return &summaryService{
    log:         serviceLog,
    meetingRepo: meetingRepo,
    client:      client,
  }
}

func (s *summaryService) Generate(ctx context.Context, meetingID, ownerUID, transcriptText string) (*types.Summary, error) {
  if strings.TrimSpace(transcriptText) == "" {
    return nil, apperr.Validation("missing transcript text")
  }
  if strings.TrimSpace(meetingID) == "" || strings.TrimSpace(ownerUID) == "" {
    return nil, apperr.Validation("missing uid or meetingId")
  }

  prompt := fmt.Sprintf(summaryPromptTemplate, transcriptText)
  content, err := s.client.ChatCompletion(ctx, prompt)
  if err != nil {
    return nil, apperr.Summarization(err)
  }

  summary, err := parseSummary(content)
  if err != nil {
    // Unparseable model output is its own failure kind; callers can decide
    // whether retrying is worthwhile, unlike a transport failure.
    return nil, apperr.MalformedSummary(err)
  }

  applied, err := s.meetingRepo.SetSummary(ctx, nil, meetingID, ownerUID, summary)
  if err != nil {
    return nil, apperr.Store(fmt.Errorf("set summary: %w", err))
  }
  if applied == 0 {
    return nil, apperr.NotFound("meeting %s not found", meetingID)
  }
  return summary, nil
}

// parseSummary decodes the model output into the Summary shape, failing
// closed: all three fields must be present, nothing is defaulted.
func parseSummary(content string) (*types.Summary, error) {
  content = stripCodeFence(content)

  var raw map[string]json.RawMessage
  if err := json.Unmarshal([]byte(content), &raw); err != nil {
    return nil, fmt.Errorf("summary is not valid JSON: %w", err)
  }
  for _, field := range []string{"overview", "actionables", "notes"} {
    if _, ok := raw[field]; !ok {
      return nil, fmt.Errorf("summary missing field %q", field)
    }
  }

  var summary types.Summary
  if err := json.Unmarshal([]byte(content), &summary); err != nil {
    return nil, fmt.Errorf("summary does not match expected shape: %w", err)
  }
  return &summary, nil
}

// stripCodeFence drops a ```json ... ``` wrapper when the model adds one.
func stripCodeFence(content string) string {
  trimmed := strings.TrimSpace(content)
  if !strings.HasPrefix(trimmed, "```") {
    return trimmed
  }
  trimmed = strings.TrimPrefix(trimmed, "```json")
  trimmed = strings.TrimPrefix(trimmed, "```")
  trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
  return strings.TrimSpace(trimmed)
}
