package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/twinmind/meeting-backend/internal/apperr"
  "github.com/twinmind/meeting-backend/internal/services"
)

type AuthHandler struct {
  verifier services.TokenVerifier
}

func NewAuthHandler(verifier services.TokenVerifier) *AuthHandler {
  return &AuthHandler{verifier: verifier}
}

// POST /login
// Verifies the supplied token and echoes the verified identity.
func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Token       string      `json:"token"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("invalid request body"))
    return
  }
  if req.Token == "" {
    RespondError(c, http.StatusBadRequest, apperr.CodeValidationFailed, fmt.Errorf("missing token"))
    return
  }
  identity, err := ah.verifier.Verify(c.Request.Context(), req.Token)
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{
    "message": "Login successful",
    "user": gin.H{
      "uid":   identity.UID,
      "email": identity.Email,
      "name":  identity.Name,
    },
  })
}
