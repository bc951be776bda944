package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/twinmind/meeting-backend/internal/logger"
)

// cachedVerifier is a redis read-through cache in front of a TokenVerifier.
// Verification is pure CPU work for local JWTs but the cache keeps the door
// open for remote verifiers, and it bounds per-request work on the hot chunk
// upload path. Entries never outlive the token's own expiry.
type cachedVerifier struct {
	log   *logger.Logger
	inner TokenVerifier
	rdb   *goredis.Client
	ttl   time.Duration
}

func NewCachedTokenVerifier(log *logger.Logger, inner TokenVerifier) (TokenVerifier, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner verifier required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &cachedVerifier{
		log:   log.With("service", "CachedTokenVerifier"),
		inner: inner,
		rdb:   rdb,
		ttl:   5 * time.Minute,
	}, nil
}

func (v *cachedVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	key := cacheKey(tokenString)

	if raw, err := v.rdb.Get(ctx, key).Result(); err == nil {
		var id Identity
		if uErr := json.Unmarshal([]byte(raw), &id); uErr == nil {
			return &id, nil
		}
	}

	id, err := v.inner.Verify(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	ttl := v.ttl
	if !id.ExpiresAt.IsZero() {
		if until := time.Until(id.ExpiresAt); until < ttl {
			ttl = until
		}
	}
	if ttl > 0 {
		if raw, mErr := json.Marshal(id); mErr == nil {
			if sErr := v.rdb.Set(ctx, key, raw, ttl).Err(); sErr != nil {
				v.log.Warn("Failed to cache verified identity", "error", sErr)
			}
		}
	}
	return id, nil
}

func cacheKey(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return "authcache:" + hex.EncodeToString(sum[:16])
}
