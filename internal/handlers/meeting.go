package handlers

import (
  "fmt"
  "io"
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/twinmind/meeting-backend/internal/apperr"
  "github.com/twinmind/meeting-backend/internal/logger"
  "github.com/twinmind/meeting-backend/internal/requestdata"
  "github.com/twinmind/meeting-backend/internal/services"
  "github.com/twinmind/meeting-backend/internal/types"
)

type MeetingHandler struct {
  log            *logger.Logger
  meetingService services.MeetingService
}

func NewMeetingHandler(log *logger.Logger, meetingService services.MeetingService) *MeetingHandler {
  return &MeetingHandler{
    log:            log.With("handler", "MeetingHandler"),
    meetingService: meetingService,
  }
}

// POST /meetings/init
// Idempotent: replaying the same meetingId is a successful no-op.
func (h *MeetingHandler) InitMeeting(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, apperr.CodeUnauthorized, fmt.Errorf("missing identity"))
    return
  }
  var req struct {
    MeetingID          string     `json:"meetingId"`
    MeetingName        string     `json:"meetingName"`
    MeetingDescription string     `json:"meetingDescription"`
    MeetingStartTime   string     `json:"meetingStartTime"`
    MeetingEndTime     string     `json:"meetingEndTime"`
    CreatedAt          string     `json:"createdAt"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("invalid request body"))
    return
  }
  meetingID, err := h.meetingService.InitializeMeeting(c.Request.Context(), services.InitializeMeetingInput{
    MeetingID:   req.MeetingID,
    OwnerUID:    rd.UID,
    Name:        req.MeetingName,
    Description: req.MeetingDescription,
    StartTime:   req.MeetingStartTime,
    EndTime:     req.MeetingEndTime,
    CreatedAt:   req.CreatedAt,
  })
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "Meeting initialized", "meetingId": meetingID})
}

// POST /meeting/chunk (multipart: meetingId, timestamp, file)
func (h *MeetingHandler) IngestChunk(c *gin.Context) {
  meetingID := c.PostForm("meetingId")
  timestampStr := c.PostForm("timestamp")
  offset, err := strconv.ParseInt(timestampStr, 10, 64)
  if err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("invalid timestamp %q", timestampStr))
    return
  }
  fileHeader, err := c.FormFile("file")
  if err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("missing file"))
    return
  }
  file, err := fileHeader.Open()
  if err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("unreadable file"))
    return
  }
  defer file.Close()
  audio, err := io.ReadAll(file)
  if err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("unreadable file"))
    return
  }
  mimeType := fileHeader.Header.Get("Content-Type")

  text, err := h.meetingService.IngestChunk(c.Request.Context(), meetingID, offset, audio, mimeType)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "Chunk saved", "text": text})
}

// POST /meetings/searches
func (h *MeetingHandler) SaveSearches(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, apperr.CodeUnauthorized, fmt.Errorf("missing identity"))
    return
  }
  var req struct {
    MeetingID  string `json:"meetingId"`
    Searches   []struct {
      Question       string     `json:"question"`
      Answer         string     `json:"answer"`
      DatetimeStamp  string     `json:"datetimeStamp"`
    } `json:"searches"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("invalid request body"))
    return
  }
  items := make([]services.SearchItemInput, 0, len(req.Searches))
  for _, s := range req.Searches {
    items = append(items, services.SearchItemInput{
      Question: s.Question,
      Answer:   s.Answer,
      AskedAt:  s.DatetimeStamp,
    })
  }
  applied, err := h.meetingService.AppendSearches(c.Request.Context(), req.MeetingID, rd.UID, items)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"status": "success", "updated": applied})
}

// GET /meetings/past
func (h *MeetingHandler) PastMeetings(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, apperr.CodeUnauthorized, fmt.Errorf("missing identity"))
    return
  }
  meetings, err := h.meetingService.ListForUser(c.Request.Context(), rd.UID)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  views := make([]gin.H, 0, len(meetings))
  for _, m := range meetings {
    view, vErr := meetingView(m)
    if vErr != nil {
      RespondAppError(c, apperr.Store(vErr))
      return
    }
    views = append(views, view)
  }
  RespondOK(c, gin.H{"meetings": views})
}

// GET /meetings/find?meetingId=...
func (h *MeetingHandler) FindMeeting(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, apperr.CodeUnauthorized, fmt.Errorf("missing identity"))
    return
  }
  meetingID := c.Query("meetingId")
  meeting, err := h.meetingService.Find(c.Request.Context(), rd.UID, meetingID)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  if meeting == nil {
    RespondOK(c, gin.H{"found": false, "meeting": gin.H{}})
    return
  }
  view, vErr := meetingView(meeting)
  if vErr != nil {
    RespondAppError(c, apperr.Store(vErr))
    return
  }
  RespondOK(c, gin.H{"found": true, "meeting": view})
}

// meetingView renders a meeting with its transcript in logical reading order
// rather than physical append order.
func meetingView(m *types.Meeting) (gin.H, error) {
  chunks, err := m.TranscriptChunks()
  if err != nil {
    return nil, fmt.Errorf("decode transcript: %w", err)
  }
  searches, err := m.SearchRecords()
  if err != nil {
    return nil, fmt.Errorf("decode search history: %w", err)
  }
  summary, err := m.SummaryValue()
  if err != nil {
    return nil, fmt.Errorf("decode summary: %w", err)
  }
  return gin.H{
    "meetingId":          m.MeetingID,
    "uid":                m.OwnerUID,
    "meetingName":        m.Name,
    "meetingDescription": m.Description,
    "meetingStartTime":   m.StartTime,
    "meetingEndTime":     m.EndTime,
    "createdAt":          m.CreatedAt,
    "meetingTranscription": types.LogicalTranscript(chunks),
    "meetingSearches":      searches,
    "meetingSummary":       summary,
  }, nil
}
