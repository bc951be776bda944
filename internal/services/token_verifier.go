package services

import (
  "context"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"

  "github.com/twinmind/meeting-backend/internal/apperr"
  "github.com/twinmind/meeting-backend/internal/logger"
)

// Identity is the verified caller identity every mutating operation runs as.
type Identity struct {
  UID       string    `json:"uid"`
  Email     string    `json:"email,omitempty"`
  Name      string    `json:"name,omitempty"`
  ExpiresAt time.Time `json:"expires_at"`
}

type TokenVerifier interface {
  Verify(ctx context.Context, tokenString string) (*Identity, error)
}

type identityClaims struct {
  jwt.RegisteredClaims
  Email string `json:"email,omitempty"`
  Name  string `json:"name,omitempty"`
}

type jwtVerifier struct {
  log       *logger.Logger
  secretKey string
}

func NewJWTVerifier(log *logger.Logger, secretKey string) (TokenVerifier, error) {
  if secretKey == "" {
    return nil, fmt.Errorf("jwt secret key required")
  }
  return &jwtVerifier{
    log:       log.With("service", "JWTVerifier"),
    secretKey: secretKey,
  }, nil
}

func (v *jwtVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
  if tokenString == "" {
    return nil, apperr.Unauthorized(fmt.Errorf("missing token"))
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &identityClaims{}, func(token *jwt.Token) (interface{}, error) {
    if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
    }
    return []byte(v.secretKey), nil
  })
  if err != nil {
    return nil, apperr.Unauthorized(fmt.Errorf("invalid or expired token: %w", err))
  }
  claims, ok := parsedToken.Claims.(*identityClaims)
  if !ok || !parsedToken.Valid {
    return nil, apperr.Unauthorized(fmt.Errorf("invalid or expired token"))
  }
  if claims.Subject == "" {
    return nil, apperr.Unauthorized(fmt.Errorf("token has no subject"))
  }

  identity := &Identity{
    UID:   claims.Subject,
    Email: claims.Email,
    Name:  claims.Name,
  }
  if claims.ExpiresAt != nil {
    identity.ExpiresAt = claims.ExpiresAt.Time
  }
  return identity, nil
}
