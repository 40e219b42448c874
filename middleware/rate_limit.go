package middleware

import (
	"math"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/upb/logistics-assistant/services"
	"github.com/upb/logistics-assistant/utils"
)

// RateLimiter is a process-wide token bucket
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst. rps <= 0 returns nil, which disables limiting.
func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Limit rejects requests with 429 once the bucket is empty
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	retryAfter := int(math.Ceil(1 / float64(l.limiter.Limit())))
	if retryAfter < 1 {
		retryAfter = 1
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			GetLoggerFromContext(r.Context(), l.logger).Warn("rate limit exceeded",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr))
			_ = utils.WriteTooManyRequests(w, services.ErrRateLimitExceeded.Message, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}
