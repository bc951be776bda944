package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "mime/multipart"
  "net/http"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/twinmind/meeting-backend/internal/logger"
)

// OpenAIClient covers the three calls this backend makes: audio
// transcription, and plain chat completions for summarization and Q&A.
// Each call is a single attempt with its own timeout; callers retry, the
// client does not.
type OpenAIClient interface {
  TranscribeAudio(ctx context.Context, audio []byte, filename, mimeType string) (string, error)
  ChatCompletion(ctx context.Context, prompt string) (string, error)
}

type openAIClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  model      string
  audioModel string
  httpClient *http.Client
}

func NewOpenAIClient(log *logger.Logger) (OpenAIClient, error) {
  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY")
  }

  baseURL := os.Getenv("OPENAI_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.openai.com"
  }

  model := os.Getenv("OPENAI_MODEL")
  if model == "" {
    model = "gpt-4o-mini"
  }

  audioModel := os.Getenv("OPENAI_AUDIO_MODEL")
  if audioModel == "" {
    audioModel = "whisper-1"
  }

  timeoutSec := 120
  if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  return &openAIClient{
    log:        log.With("service", "OpenAIClient"),
    baseURL:    baseURL,
    apiKey:     apiKey,
    model:      model,
    audioModel: audioModel,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }, nil
}

type openAIHTTPError struct {
  StatusCode int
  Body       string
}

func (e *openAIHTTPError) Error() string {
  return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (c *openAIClient) doOnce(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
  req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
  if err != nil {
    return nil, err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", contentType)

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, err
  }

  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return nil, readErr
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return nil, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
  }
  return raw, nil
}

func (c *openAIClient) TranscribeAudio(ctx context.Context, audio []byte, filename, mimeType string) (string, error) {
  var buf bytes.Buffer
  w := multipart.NewWriter(&buf)

  fw, err := w.CreateFormFile("file", filename)
  if err != nil {
    return "", err
  }
  if _, err := fw.Write(audio); err != nil {
    return "", err
  }
  if err := w.WriteField("model", c.audioModel); err != nil {
    return "", err
  }
  if err := w.WriteField("response_format", "text"); err != nil {
    return "", err
  }
  if err := w.Close(); err != nil {
    return "", err
  }

  raw, err := c.doOnce(ctx, "POST", "/v1/audio/transcriptions", w.FormDataContentType(), &buf)
  if err != nil {
    c.log.Warn("OpenAI transcription failed", "error", err)
    return "", err
  }
  return strings.TrimSpace(string(raw)), nil
}

type chatCompletionRequest struct {
  Model    string `json:"model"`
  Messages []struct {
    Role    string `json:"role"`
    Content string `json:"content"`
  } `json:"messages"`
  Temperature float64 `json:"temperature"`
}

type chatCompletionResponse struct {
  Choices []struct {
    Message struct {
      Content string `json:"content"`
    } `json:"message"`
  } `json:"choices"`
}

func (c *openAIClient) ChatCompletion(ctx context.Context, prompt string) (string, error) {
  req := chatCompletionRequest{
    Model: c.model,
    Messages: []struct {
      Role    string `json:"role"`
      Content string `json:"content"`
    }{
      {Role: "user", Content: prompt},
    },
    Temperature: 0.3,
  }

  var body bytes.Buffer
  if err := json.NewEncoder(&body).Encode(req); err != nil {
    return "", err
  }

  raw, err := c.doOnce(ctx, "POST", "/v1/chat/completions", "application/json", &body)
  if err != nil {
    c.log.Warn("OpenAI chat completion failed", "error", err)
    return "", err
  }

  var resp chatCompletionResponse
  if err := json.Unmarshal(raw, &resp); err != nil {
    return "", fmt.Errorf("openai decode error: %w", err)
  }
  if len(resp.Choices) == 0 {
    return "", fmt.Errorf("openai returned no choices")
  }
  return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
