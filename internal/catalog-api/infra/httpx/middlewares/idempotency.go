package middlewares

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/interceptors/constants"
)

const (
	HeaderIdempotentReplay = "Idempotent-Replayed"

	idempotencyLockTTL = 30 * time.Second

	// maxFingerprintBytes matches the request body limit of the handlers.
	maxFingerprintBytes = 1 << 20
)

type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	// Fingerprint is the SHA-256 of the request body that produced the
	// response.
	Fingerprint string `json:"fingerprint"`
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.statusCode = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored 2xx response for a mutating request that
// repeats an x-idempotency-key already seen on the same method and path.
// A repeat with a different body gets 422 instead of the replay. While the
// first request is in flight, repeats get 409. Cache failures are logged and
// the request is processed normally.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get(constants.HeaderXIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			fingerprint, err := fingerprintBody(r)
			if err != nil {
				slog.WarnContext(ctx, "idempotency fingerprint failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			scope := r.Method + ":" + r.URL.Path + ":" + key
			responseKey := c.GenerateKey("idempotency", scope)
			lockKey := c.GenerateKey("idempotency-lock", scope)

			raw, err := c.Get(ctx, responseKey)
			if err != nil {
				slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if raw != "" {
				var cached cachedResponse
				if err := json.Unmarshal([]byte(raw), &cached); err == nil {
					if cached.Fingerprint != fingerprint {
						writeMiddlewareError(w, http.StatusUnprocessableEntity, "idempotency_key_reused",
							"the idempotency key was already used with a different request body")
						return
					}
					replay(w, cached)
					return
				}
				slog.WarnContext(ctx, "discarding unreadable idempotency entry", "key", responseKey)
			}

			acquired, err := c.SetNX(ctx, lockKey, "1", idempotencyLockTTL)
			if err != nil {
				slog.WarnContext(ctx, "idempotency lock failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				writeMiddlewareError(w, http.StatusConflict, "idempotency_conflict",
					"a request with this idempotency key is still being processed")
				return
			}

			bg := context.WithoutCancel(ctx)
			defer func() {
				if err := c.Delete(bg, lockKey); err != nil {
					slog.WarnContext(bg, "idempotency unlock failed", "error", err)
				}
			}()

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			if capture.statusCode < 200 || capture.statusCode >= 300 {
				return
			}
			payload, err := json.Marshal(cachedResponse{
				StatusCode:  capture.statusCode,
				ContentType: w.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				Fingerprint: fingerprint,
			})
			if err != nil {
				return
			}
			if err := c.Set(bg, responseKey, payload, ttl); err != nil {
				slog.WarnContext(bg, "idempotency store failed", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, cached cachedResponse) {
	if cached.ContentType != "" {
		w.Header().Set("Content-Type", cached.ContentType)
	}
	w.Header().Set(HeaderIdempotentReplay, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

// fingerprintBody hashes the request body and puts it back for the handler.
// Bytes past maxFingerprintBytes are left unread and are not hashed.
func fingerprintBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxFingerprintBytes))
	if err != nil {
		return "", err
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	sum := sha256.Sum256(head)
	return hex.EncodeToString(sum[:]), nil
}

func writeMiddlewareError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
