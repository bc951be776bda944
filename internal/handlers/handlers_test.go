package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/twinmind/meeting-backend/internal/apperr"
	"github.com/twinmind/meeting-backend/internal/logger"
	"github.com/twinmind/meeting-backend/internal/requestdata"
	"github.com/twinmind/meeting-backend/internal/services"
	"github.com/twinmind/meeting-backend/internal/types"
)

// stubMeetingService records the last call and returns scripted results.
type stubMeetingService struct {
	lastInit     services.InitializeMeetingInput
	lastSearches []services.SearchItemInput
	lastOwner    string
	meeting      *types.Meeting
	err          error
}

func (s *stubMeetingService) InitializeMeeting(ctx context.Context, in services.InitializeMeetingInput) (string, error) {
	s.lastInit = in
	if s.err != nil {
		return "", s.err
	}
	return in.MeetingID, nil
}

func (s *stubMeetingService) IngestChunk(ctx context.Context, meetingID string, offset int64, audio []byte, mimeType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", apperr.InvalidMedia("expected audio content type, got %q", mimeType)
	}
	return "transcribed", nil
}

func (s *stubMeetingService) AppendSearches(ctx context.Context, meetingID, ownerUID string, items []services.SearchItemInput) (int64, error) {
	s.lastOwner = ownerUID
	s.lastSearches = items
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(items)), nil
}

func (s *stubMeetingService) ListForUser(ctx context.Context, ownerUID string) ([]*types.Meeting, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.meeting == nil {
		return nil, nil
	}
	return []*types.Meeting{s.meeting}, nil
}

func (s *stubMeetingService) Find(ctx context.Context, ownerUID, meetingID string) (*types.Meeting, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.meeting, nil
}

type stubSummaryService struct {
	summary *types.Summary
	err     error
}

func (s *stubSummaryService) Generate(ctx context.Context, meetingID, ownerUID, transcriptText string) (*types.Summary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

type stubQAService struct {
	answer string
	err    error
}

func (s *stubQAService) Answer(ctx context.Context, transcript []string, question string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type stubVerifier struct {
	identity *services.Identity
	err      error
}

func (s *stubVerifier) Verify(ctx context.Context, tokenString string) (*services.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func identityMiddleware(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UID: uid})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func handlerLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope %q: %v", w.Body.String(), err)
	}
	if env.Error.Message == "" {
		t.Fatalf("error envelope missing message: %q", w.Body.String())
	}
	return env.Error.Code
}

func TestInitMeetingTakesUIDFromIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubMeetingService{}
	h := NewMeetingHandler(handlerLogger(t), svc)

	router := gin.New()
	router.POST("/meetings/init", identityMiddleware("verified-uid"), h.InitMeeting)

	payload := `{"meetingId":"m1","meetingName":"Standup","meetingDescription":"daily","meetingStartTime":"2024-01-01T00:00:00Z","meetingEndTime":"2024-01-01T00:30:00Z","createdAt":"2024-01-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/meetings/init", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastInit.OwnerUID != "verified-uid" {
		t.Fatalf("owner must come from the verified identity, got %q", svc.lastInit.OwnerUID)
	}
	body := decodeBody(t, w)
	if body["meetingId"] != "m1" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestInitMeetingWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMeetingHandler(handlerLogger(t), &stubMeetingService{})

	router := gin.New()
	router.POST("/meetings/init", h.InitMeeting)

	req := httptest.NewRequest(http.MethodPost, "/meetings/init", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := errorCode(t, w); code != apperr.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %q", code)
	}
}

func chunkRequest(t *testing.T, meetingID, timestamp, contentType string, payload []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("meetingId", meetingID); err != nil {
		t.Fatalf("write meetingId: %v", err)
	}
	if err := w.WriteField("timestamp", timestamp); err != nil {
		t.Fatalf("write timestamp: %v", err)
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="chunk.webm"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/meeting/chunk", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestIngestChunkSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMeetingHandler(handlerLogger(t), &stubMeetingService{})

	router := gin.New()
	router.POST("/meeting/chunk", h.IngestChunk)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, chunkRequest(t, "m1", "3", "audio/webm", []byte("audio-bytes")))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["text"] != "transcribed" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestIngestChunkRejectsNonAudioUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMeetingHandler(handlerLogger(t), &stubMeetingService{})

	router := gin.New()
	router.POST("/meeting/chunk", h.IngestChunk)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, chunkRequest(t, "m1", "0", "text/plain", []byte("not audio")))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != apperr.CodeInvalidMedia {
		t.Fatalf("expected invalid media code, got %q", code)
	}
}

func TestIngestChunkBadTimestamp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMeetingHandler(handlerLogger(t), &stubMeetingService{})

	router := gin.New()
	router.POST("/meeting/chunk", h.IngestChunk)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, chunkRequest(t, "m1", "not-a-number", "audio/webm", []byte("x")))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if code := errorCode(t, w); code != apperr.CodeValidationFailed {
		t.Fatalf("expected validation code, got %q", code)
	}
}

func TestSaveSearchesMapsFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubMeetingService{}
	h := NewMeetingHandler(handlerLogger(t), svc)

	router := gin.New()
	router.POST("/meetings/searches", identityMiddleware("u1"), h.SaveSearches)

	payload := `{"meetingId":"m1","searches":[{"question":"q","answer":"a","datetimeStamp":"2024-01-01T01:00:00Z"}]}`
	req := httptest.NewRequest(http.MethodPost, "/meetings/searches", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastOwner != "u1" {
		t.Fatalf("owner must come from identity, got %q", svc.lastOwner)
	}
	if len(svc.lastSearches) != 1 || svc.lastSearches[0].AskedAt != "2024-01-01T01:00:00Z" {
		t.Fatalf("datetimeStamp not mapped: %+v", svc.lastSearches)
	}
	body := decodeBody(t, w)
	if body["status"] != "success" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestSaveSearchesValidationFailurePropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubMeetingService{err: apperr.Validation("searches[0]: empty answer")}
	h := NewMeetingHandler(handlerLogger(t), svc)

	router := gin.New()
	router.POST("/meetings/searches", identityMiddleware("u1"), h.SaveSearches)

	payload := `{"meetingId":"m1","searches":[{"question":"q","answer":"","datetimeStamp":"2024-01-01T01:00:00Z"}]}`
	req := httptest.NewRequest(http.MethodPost, "/meetings/searches", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if code := errorCode(t, w); code != apperr.CodeValidationFailed {
		t.Fatalf("expected validation code, got %q", code)
	}
}

func TestFindMeetingNotFoundShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMeetingHandler(handlerLogger(t), &stubMeetingService{meeting: nil})

	router := gin.New()
	router.GET("/meetings/find", identityMiddleware("u1"), h.FindMeeting)

	req := httptest.NewRequest(http.MethodGet, "/meetings/find?meetingId=m1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for an unknown meeting, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["found"] != false {
		t.Fatalf("expected found=false, got %v", body)
	}
}

func TestFindMeetingRendersLogicalTranscript(t *testing.T) {
	gin.SetMode(gin.TestMode)
	raw, _ := json.Marshal([]types.TranscriptChunk{
		{Offset: 30, Text: "world"},
		{Offset: 0, Text: "hello"},
	})
	meeting := &types.Meeting{
		MeetingID:     "m1",
		OwnerUID:      "u1",
		Name:          "Standup",
		Description:   "daily",
		Transcript:    raw,
		SearchHistory: []byte("[]"),
	}
	h := NewMeetingHandler(handlerLogger(t), &stubMeetingService{meeting: meeting})

	router := gin.New()
	router.GET("/meetings/find", identityMiddleware("u1"), h.FindMeeting)

	req := httptest.NewRequest(http.MethodGet, "/meetings/find?meetingId=m1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	view, ok := body["meeting"].(map[string]any)
	if !ok {
		t.Fatalf("missing meeting view: %v", body)
	}
	transcription, ok := view["meetingTranscription"].([]any)
	if !ok || len(transcription) != 2 {
		t.Fatalf("unexpected transcription %v", view["meetingTranscription"])
	}
	first, _ := transcription[0].(map[string]any)
	if first["text"] != "hello" {
		t.Fatalf("transcript must be in offset order, first entry %v", first)
	}
}

func TestGenerateSummaryEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSummaryHandler(&stubSummaryService{summary: &types.Summary{Notes: "done"}})

	router := gin.New()
	router.POST("/generate-structured-summary", identityMiddleware("u1"), h.GenerateSummary)

	req := httptest.NewRequest(http.MethodPost, "/generate-structured-summary", strings.NewReader(`{"meetingId":"m1","text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	summary, ok := body["summary"].(map[string]any)
	if !ok || summary["notes"] != "done" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestGenerateSummaryMalformedMapsTo502(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSummaryHandler(&stubSummaryService{err: apperr.MalformedSummary(fmt.Errorf("missing field"))})

	router := gin.New()
	router.POST("/generate-structured-summary", identityMiddleware("u1"), h.GenerateSummary)

	req := httptest.NewRequest(http.MethodPost, "/generate-structured-summary", strings.NewReader(`{"meetingId":"m1","text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if code := errorCode(t, w); code != apperr.CodeMalformedSummary {
		t.Fatalf("expected malformed summary code, got %q", code)
	}
}

func TestSearchTranscriptEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewQAHandler(&stubQAService{answer: "Friday"})

	router := gin.New()
	router.POST("/search-in-transcript", h.SearchTranscript)

	req := httptest.NewRequest(http.MethodPost, "/search-in-transcript", strings.NewReader(`{"question":"when?","transcript":["we ship Friday"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["answer"] != "Friday" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestLoginEchoesIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&stubVerifier{identity: &services.Identity{UID: "u1", Email: "e@x.com", Name: "E"}})

	router := gin.New()
	router.POST("/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"token":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	user, ok := body["user"].(map[string]any)
	if !ok || user["uid"] != "u1" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestLoginRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&stubVerifier{err: apperr.Unauthorized(fmt.Errorf("invalid token"))})

	router := gin.New()
	router.POST("/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"token":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := errorCode(t, w); code != apperr.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %q", code)
	}
}
