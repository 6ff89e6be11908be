package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/forkline/forkline-backend/pkg/config"
)

type stubLimiterStore struct {
	counts map[string]int64
}

func (s *stubLimiterStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestOrderRateLimitPerUser(t *testing.T) {
	store := &stubLimiterStore{}
	cfg := config.RateLimitConfig{OrderWindow: time.Minute, OrderUserLimit: 2}
	handler := OrderRateLimit(cfg, store, nil)(okHandler())

	userID := uuid.New()
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", nil)
		req = req.WithContext(WithUser(req.Context(), userID, "customer"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", nil)
	req = req.WithContext(WithUser(req.Context(), userID, "customer"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// a different user has an independent counter
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders/", nil)
	req = req.WithContext(WithUser(req.Context(), uuid.New(), "customer"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderRateLimitPerIP(t *testing.T) {
	store := &stubLimiterStore{}
	cfg := config.RateLimitConfig{OrderWindow: time.Minute, OrderIPLimit: 1}
	handler := OrderRateLimit(cfg, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestOrderRateLimitDisabledWithoutStore(t *testing.T) {
	cfg := config.RateLimitConfig{OrderWindow: time.Minute, OrderUserLimit: 1}
	handler := OrderRateLimit(cfg, nil, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
