package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/twinmind/meeting-backend/internal/apperr"
)

type APIError struct {
  Message     string	`json:"message"`
  Code	      string	`json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error	      APIError	`json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

// RespondAppError maps a typed failure to its status and code. Errors that
// did not come from apperr fall back to a 500 store-agnostic response.
func RespondAppError(c *gin.Context, err error) {
  code := apperr.CodeOf(err)
  if code == "" {
    RespondError(c, http.StatusInternalServerError, "internal_error", err)
    return
  }
  RespondError(c, apperr.StatusOf(err), code, err)
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}
