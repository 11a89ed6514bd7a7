package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/expensetracker/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the idempotency store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	pendingMarker = "processing"
)

// storedResponse is what gets persisted for a completed request.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyMiddleware handles request idempotency using Redis.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}

	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		log := zerolog.Ctx(ctx)

		exists, existing, err := m.store.CheckAndSet(ctx, key, nil, m.ttl)
		if err != nil {
			log.Error().Err(err).Str("idempotency_key", key).Msg("idempotency check failed")
			writeJSONError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			var stored storedResponse
			if len(existing) == 0 || string(existing) == pendingMarker || json.Unmarshal(existing, &stored) != nil {
				writeJSONError(w, http.StatusConflict, "request with this idempotency key is in progress")
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			w.Write(stored.Body)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		storeCtx := context.WithoutCancel(ctx)

		defer func() {
			if p := recover(); p != nil {
				if err := m.store.Release(storeCtx, key); err != nil {
					log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
				}
				panic(p)
			}
		}()

		next.ServeHTTP(recorder, r)

		// the response is already written, so store failures are only logged
		if !replayable(recorder.statusCode) {
			if err := m.store.Release(storeCtx, key); err != nil {
				log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
			return
		}

		stored := storedResponse{Status: recorder.statusCode}
		if body := bytes.TrimSpace(recorder.body.Bytes()); len(body) > 0 {
			stored.Body = body
		}

		data, err := json.Marshal(stored)
		if err != nil {
			log.Warn().Err(err).Str("idempotency_key", key).Msg("response is not JSON, releasing idempotency key")
			if err := m.store.Release(storeCtx, key); err != nil {
				log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
			return
		}

		if err := m.store.Update(storeCtx, key, data, m.ttl); err != nil {
			log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotent response")
		}
	})
}

func replayable(status int) bool {
	return (status >= 200 && status < 300) || status == http.StatusUnprocessableEntity
}

type responseRecorder struct {
	http.ResponseWriter

	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error_message": message})
}
