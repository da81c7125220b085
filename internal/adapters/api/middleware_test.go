package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedKey(t *testing.T, repo *testutil.MemoryRepository, user *domain.User, raw string, mods ...func(*domain.APIKey)) {
	t.Helper()
	ctx := context.Background()
	if existing, _ := repo.GetUser(ctx, user.ID); existing == nil {
		require.NoError(t, repo.CreateUser(ctx, user))
	}
	key := &domain.APIKey{ID: "key-" + raw, UserID: user.ID, Name: "test", KeyHash: HashKey(raw), KeyPrefix: raw[:4], Active: true}
	for _, m := range mods {
		m(key)
	}
	require.NoError(t, repo.CreateAPIKey(ctx, key))
}

func TestAuthMiddleware(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	active := &domain.User{ID: "u1", Username: "alice", Active: true}
	disabled := &domain.User{ID: "u2", Username: "bob"}
	seedKey(t, repo, active, "dnsk_good")
	seedKey(t, repo, active, "dnsk_off", func(k *domain.APIKey) { k.Active = false })
	seedKey(t, repo, active, "dnsk_old", func(k *domain.APIKey) {
		past := time.Now().Add(-time.Hour)
		k.ExpiresAt = &past
	})
	seedKey(t, repo, disabled, "dnsk_bob")

	handler := AuthMiddleware(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-User", user.Username)
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic dnsk_good", http.StatusUnauthorized},
		{"unknown key", "Bearer dnsk_nope", http.StatusUnauthorized},
		{"inactive key", "Bearer dnsk_off", http.StatusUnauthorized},
		{"expired key", "Bearer dnsk_old", http.StatusUnauthorized},
		{"disabled user", "Bearer dnsk_bob", http.StatusUnauthorized},
		{"valid key", "Bearer dnsk_good", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, serve(tc.header).Code)
		})
	}

	assert.Equal(t, "alice", serve("Bearer dnsk_good").Header().Get("X-User"))

	t.Run("repository failure", func(t *testing.T) {
		repo.FailOn("GetAPIKeyByHash", errors.New("db down"))
		defer repo.ClearFaults()
		assert.Equal(t, http.StatusInternalServerError, serve("Bearer dnsk_good").Code)
	})
}

func TestHashKey(t *testing.T) {
	assert.Len(t, HashKey("dnsk_abc"), 64)
	assert.Equal(t, HashKey("dnsk_abc"), HashKey("dnsk_abc"))
	assert.NotEqual(t, HashKey("dnsk_abc"), HashKey("dnsk_abd"))
}

func TestMetricsMiddleware(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
