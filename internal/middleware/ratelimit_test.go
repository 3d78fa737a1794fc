package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mizuno/cardbox/internal/model"
)

func limitedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	ctx := ContextWithIdentity(req.Context(), &model.Identity{ID: userID})
	return req.WithContext(ctx)
}

func TestRateLimitMiddleware_AllowsRequestsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handlerCallCount := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("user-1"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("user-rate-limit"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("user-rate-limit"))

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if retryAfter := w.Header().Get("Retry-After"); retryAfter == "" {
		t.Error("Retry-After header must be set")
	} else if sec, err := strconv.Atoi(retryAfter); err != nil || sec < 1 {
		t.Errorf("Retry-After = %q, want a positive integer", retryAfter)
	}
}

func TestRateLimitMiddleware_LimitsArePerUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// user-1がバーストを使い切る
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("user-1"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("user-1 second request status = %d, want 429", w.Code)
	}

	// user-2は影響を受けない
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, limitedRequest("user-2"))
	if w.Code != http.StatusOK {
		t.Errorf("user-2 status = %d, want %d", w.Code, http.StatusOK)
	}

	if rl.LimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.LimiterCount())
	}
}

func TestRateLimitMiddleware_ConcurrentRequestsSameUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1000,
		GeneralBurst:    1000,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, limitedRequest("user-concurrent"))
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
		}()
	}
	wg.Wait()

	if rl.LimiterCount() != 1 {
		t.Errorf("limiter count = %d, want 1", rl.LimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	rl.getOrCreateLimiter("user-stale")
	rl.getOrCreateLimiter("user-active")

	// user-staleの最終アクセスをTTL（CleanupIntervalの2倍）より過去にずらす
	rl.mu.RLock()
	rl.limiters["user-stale"].lastAccess.Store(time.Now().Add(-3 * time.Minute).UnixNano())
	rl.mu.RUnlock()

	rl.cleanup()

	if rl.LimiterCount() != 1 {
		t.Errorf("limiter count = %d, want 1", rl.LimiterCount())
	}

	rl.mu.RLock()
	_, staleExists := rl.limiters["user-stale"]
	_, activeExists := rl.limiters["user-active"]
	rl.mu.RUnlock()

	if staleExists {
		t.Error("stale entry must be removed")
	}
	if !activeExists {
		t.Error("active entry must be kept")
	}
}

func TestRateLimitMiddleware_NoIdentity_Returns401(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
