package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/twinmind/meeting-backend/internal/apperr"
  "github.com/twinmind/meeting-backend/internal/logger"
)

const qaPromptTemplate = "Here is a transcript of a meeting:\n%s\n\n" +
  "Based on this, answer the following question as accurately as possible:\n%s\n\n" +
  "Answer:"

// QAService answers ad-hoc questions against a supplied transcript. Pure
// relative to storage: nothing is persisted here; recording the Q&A pair is
// a separate call to the search recorder.
type QAService interface {
  Answer(ctx context.Context, transcript []string, question string) (string, error)
}

type qaService struct {
  log    *logger.Logger
  client OpenAIClient
}

func NewQAService(log *logger.Logger, client OpenAIClient) QAService {
  serviceLog := log.With("service", "QAService")
  return &qaService{log: serviceLog, client: client}
}

func (s *qaService) Answer(ctx context.Context, transcript []string, question string) (string, error) {
  if len(transcript) == 0 {
    return "", apperr.Validation("missing transcript")
  }
  if strings.TrimSpace(question) == "" {
    return "", apperr.Validation("missing question")
  }

  prompt := fmt.Sprintf(qaPromptTemplate, strings.Join(transcript, "\n"), question)
  answer, err := s.client.ChatCompletion(ctx, prompt)
  if err != nil {
    return "", apperr.QA(err)
  }
  return answer, nil
}
