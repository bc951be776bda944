package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/twinmind/meeting-backend/internal/apperr"
  "github.com/twinmind/meeting-backend/internal/services"
)

type QAHandler struct {
  qaService services.QAService
}

func NewQAHandler(qaService services.QAService) *QAHandler {
  return &QAHandler{qaService: qaService}
}

// POST /search-in-transcript
// Read-only; persisting the Q&A pair is a separate /meetings/searches call.
func (qh *QAHandler) SearchTranscript(c *gin.Context) {
  var req struct {
    Question    string      `json:"question"`
    Transcript  []string    `json:"transcript"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("invalid request body"))
    return
  }
  answer, err := qh.qaService.Answer(c.Request.Context(), req.Transcript, req.Question)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"answer": answer})
}
