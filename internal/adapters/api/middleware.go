package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/poyrazK/dnsaas/internal/infrastructure/metrics"
)

type contextKey string

const CtxUser contextKey = "user"

// UserFromContext returns the user resolved by AuthMiddleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(CtxUser).(*domain.User)
	return u, ok && u != nil
}

// HashKey returns the stored form of a raw API key.
func HashKey(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}

// AuthMiddleware resolves a bearer API key to its active user.
func AuthMiddleware(users ports.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized: missing or invalid authorization header", http.StatusUnauthorized)
				return
			}

			apiKey, err := users.GetAPIKeyByHash(r.Context(), HashKey(strings.TrimPrefix(authHeader, "Bearer ")))
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if apiKey == nil || !apiKey.Active {
				http.Error(w, "Unauthorized: invalid or inactive API key", http.StatusUnauthorized)
				return
			}
			if apiKey.ExpiresAt != nil && apiKey.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Unauthorized: API key expired", http.StatusUnauthorized)
				return
			}

			user, err := users.GetUser(r.Context(), apiKey.UserID)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil || !user.Active {
				http.Error(w, "Unauthorized: user is disabled", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CtxUser, user)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware observes the latency of every request by method and status.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.APIRequestDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
