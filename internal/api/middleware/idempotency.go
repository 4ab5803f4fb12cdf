package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response when a POST/PUT/PATCH repeats an
// Idempotency-Key with the same body, and rejects the key with another body (409).
func IdempotencyMiddleware(store repository.IdempotencyRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to POST/PUT/PATCH requests
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" || store == nil {
			c.Next()
			return
		}

		// Read request body
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Error("Failed to read request body for idempotency", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
			c.Abort()
			return
		}

		// Restore body for handler
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		// Calculate request hash over route and payload
		hash := sha256.Sum256(append([]byte(c.Request.Method+" "+c.Request.URL.Path+"\n"), body...))
		requestHash := hex.EncodeToString(hash[:])

		existing, err := store.Get(c.Request.Context(), idempotencyKey)
		if err != nil {
			logger.Error("Failed to check idempotency key", zap.Error(err))
			c.Next()
			return
		}

		if existing != nil {
			if existing.RequestHash != requestHash {
				// Same key, different payload - conflict
				c.JSON(http.StatusConflict, gin.H{
					"error": "idempotency key conflict: same key used with different payload",
				})
				c.Abort()
				return
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(existing.StatusCode, "application/json; charset=utf-8", existing.Body)
			c.Abort()
			return
		}

		rw := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rw
		c.Next()

		// Only successful writes are remembered so a fixed retry can go through
		status := rw.Status()
		if status < 200 || status >= 300 {
			return
		}
		rec := &domain.IdempotencyRecord{
			Key:         idempotencyKey,
			RequestHash: requestHash,
			StatusCode:  status,
			Body:        rw.body.Bytes(),
		}
		if err := store.Save(c.Request.Context(), rec, idempotencyTTL); err != nil {
			logger.Warn("Failed to store idempotency key", zap.Error(err), zap.String("key", idempotencyKey))
		}
	}
}
