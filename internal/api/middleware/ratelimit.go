package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Vilin97/TelegramAIbot/internal/metrics"
	"github.com/Vilin97/TelegramAIbot/internal/store"
)

// TurnLimiter caps turns per chat over a fixed window, backed by Redis.
// Limiting lives at the transport layer: the conversational core itself
// never serializes or throttles same-chat turns.
type TurnLimiter struct {
	redis  *store.RedisStore
	limit  int
	window time.Duration
	logger zerolog.Logger
}

// NewTurnLimiter creates a per-chat turn limiter. A nil redis store or a
// non-positive limit disables limiting.
func NewTurnLimiter(redis *store.RedisStore, limit int, window time.Duration, logger zerolog.Logger) *TurnLimiter {
	return &TurnLimiter{redis: redis, limit: limit, window: window, logger: logger}
}

// Middleware enforces the limit on routes carrying a {chatID} parameter.
func (l *TurnLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.redis == nil || l.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		chatID := chi.URLParam(r, "chatID")
		if chatID == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := l.redis.AllowTurn(r.Context(), chatID, l.limit, l.window)
		if err != nil {
			// Fail open: a limiter outage must not take the bot down.
			l.logger.Warn().Err(err).Str("chat_id", chatID).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			metrics.RateLimitHits.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
