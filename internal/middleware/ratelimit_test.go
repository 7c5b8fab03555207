package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(burst int) RateLimiterConfig {
	return RateLimiterConfig{
		TriggerRate:     rate.Limit(1),
		TriggerBurst:    burst,
		CleanupInterval: time.Minute,
	}
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3))
	defer rl.Stop()

	mw := rl.TriggerMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/step", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("%d回目のリクエスト: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	mw := rl.TriggerMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/checks/sweep", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req2 := httptest.NewRequest(http.MethodPost, "/api/checks/sweep", nil)
	req2.RemoteAddr = "192.0.2.1:5678" // 同一ホスト・別ポート
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req2)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After ヘッダーが設定されていない")
	}
}

// クライアント（リモートアドレス）ごとに独立したリミッターを持つ。
func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	mw := rl.TriggerMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/step", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req2 := httptest.NewRequest(http.MethodPost, "/api/tasks/step", nil)
	req2.RemoteAddr = "192.0.2.2:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req2)

	if w.Code != http.StatusOK {
		t.Errorf("別クライアントのリクエスト: status = %d, want %d", w.Code, http.StatusOK)
	}
	if rl.LimiterCount() != 2 {
		t.Errorf("LimiterCount() = %d, want 2", rl.LimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		TriggerRate:     rate.Limit(1),
		TriggerBurst:    1,
		CleanupInterval: time.Millisecond,
	})
	defer rl.Stop()

	rl.getOrCreateLimiter("192.0.2.1")

	// 最終アクセスをTTL超過に偽装
	rl.mu.Lock()
	rl.limiters["192.0.2.1"].lastAccess = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.cleanup()

	if rl.LimiterCount() != 0 {
		t.Errorf("LimiterCount() = %d, want 0", rl.LimiterCount())
	}
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	config := DefaultRateLimiterConfig()

	if config.TriggerRate != rate.Limit(1) {
		t.Errorf("TriggerRate = %v, want 1 req/sec", config.TriggerRate)
	}
	if config.TriggerBurst != 60 {
		t.Errorf("TriggerBurst = %d, want 60", config.TriggerBurst)
	}
}
