package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/twinmind/meeting-backend/internal/apperr"
  "github.com/twinmind/meeting-backend/internal/requestdata"
  "github.com/twinmind/meeting-backend/internal/services"
)

type SummaryHandler struct {
  summaryService services.SummaryService
}

func NewSummaryHandler(summaryService services.SummaryService) *SummaryHandler {
  return &SummaryHandler{summaryService: summaryService}
}

// POST /generate-structured-summary
// Each call fully replaces any prior summary; gating redundant generation is
// the caller's business.
func (sh *SummaryHandler) GenerateSummary(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, apperr.CodeUnauthorized, fmt.Errorf("missing identity"))
    return
  }
  var req struct {
    MeetingID   string    `json:"meetingId"`
    Text        string    `json:"text"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("invalid request body"))
    return
  }
  summary, err := sh.summaryService.Generate(c.Request.Context(), req.MeetingID, rd.UID, req.Text)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"summary": summary})
}
