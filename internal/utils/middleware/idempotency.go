package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/kedarnelavelli/payment-service/internal/utils/errors"
	"github.com/kedarnelavelli/payment-service/internal/utils/logger"
)

const (
	// IdempotencyKeyHeader is the header for idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the idempotency cache.
	IdempotentReplayHeader = "Idempotent-Replayed"

	idempotencyKeyPrefix  = "idempotency:"
	idempotencyLockTTL    = 2 * time.Minute
	defaultIdempotencyTTL = 24 * time.Hour
)

// idempotencyResponse stores the cached response.
type idempotencyResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	BodyHash    string `json:"body_hash"`
	Body        []byte `json:"body"`
}

// idempotencyResponseWriter wraps gin.ResponseWriter to capture the response.
type idempotencyResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key on POST.
// A key reused with a different body is rejected. A duplicate that arrives while
// the first request is still running gets 409.
func Idempotency(redis goredis.UniversalClient, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if redis == nil || c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := generateIdempotencyKey(c, key)
		bodyHash := bodyHashKey(c)

		cached, err := getCachedResponse(ctx, redis, cacheKey)
		if err == nil {
			if cached.BodyHash != bodyHash {
				abortWithError(c, apperrors.NewAppError("IDEMPOTENCY_KEY_REUSED",
					"Idempotency-Key was already used with a different request body", http.StatusUnprocessableEntity, nil))
				return
			}
			c.Header(IdempotentReplayHeader, "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}
		if !errors.Is(err, goredis.Nil) {
			logger.FromContext(ctx).Warn("idempotency lookup failed", logger.Err(err))
			c.Next()
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := redis.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
		if err != nil {
			logger.FromContext(ctx).Warn("idempotency lock failed", logger.Err(err))
			c.Next()
			return
		}
		if !locked {
			abortWithError(c, apperrors.NewAppError("REQUEST_IN_PROGRESS",
				"A request with this idempotency key is already being processed", http.StatusConflict, nil))
			return
		}
		defer redis.Del(context.WithoutCancel(ctx), lockKey)

		respWriter := &idempotencyResponseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = respWriter

		c.Next()

		status := c.Writer.Status()
		if !replayable(status) {
			return
		}
		resp := &idempotencyResponse{
			StatusCode:  status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			BodyHash:    bodyHash,
			Body:        respWriter.body.Bytes(),
		}
		if err := cacheResponse(context.WithoutCancel(ctx), redis, cacheKey, resp, ttl); err != nil {
			logger.FromContext(ctx).Warn("failed to cache idempotent response", logger.Err(err))
		}
	}
}

// replayable reports whether a response describes a final outcome. Responses
// for requests that did nothing (busy, throttled) are left for a retry.
func replayable(status int) bool {
	switch status {
	case http.StatusConflict, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return false
	}
	return true
}

// generateIdempotencyKey scopes the client key to the route and method.
func generateIdempotencyKey(c *gin.Context, idempotencyKey string) string {
	hash := sha256.Sum256([]byte(c.Request.Method + ":" + c.Request.URL.Path + ":" + idempotencyKey))
	return idempotencyKeyPrefix + hex.EncodeToString(hash[:])
}

func getCachedResponse(ctx context.Context, redis goredis.UniversalClient, key string) (*idempotencyResponse, error) {
	data, err := redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var resp idempotencyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func cacheResponse(ctx context.Context, redis goredis.UniversalClient, key string, resp *idempotencyResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return redis.Set(ctx, key, data, ttl).Err()
}

// bodyHashKey hashes the request body and restores it for the handler.
func bodyHashKey(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}
