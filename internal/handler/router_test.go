package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/seedman/internal/middleware"
	"github.com/hitoshi/seedman/internal/model"
	"github.com/hitoshi/seedman/internal/worker/taskrunner"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(context.Context) error {
	return f.err
}

func newTestRouter(pingErr error) http.Handler {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		TriggerRate:     rate.Limit(100),
		TriggerBurst:    100,
		CleanupInterval: time.Minute,
	})

	return NewRouter(&RouterDeps{
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		CORSAllowedOrigin: "*",
		RateLimiter:       rl,
		DB:                &fakePinger{err: pingErr},
		Gatherer:          prometheus.NewRegistry(),
		TaskRunner:        &fakeStepRunner{result: &taskrunner.StepResult{}},
		Sweeper:           &fakeSweeper{},
		Fetcher:           &fakeFetcher{},
		Processor:         &fakeProcessor{},
		Comparator:        &fakeComparator{result: &model.CompareResult{}},
		Posts:             &fakePostFinder{post: &model.TrackedPost{ID: "post-1", CheckType: model.CheckTypeComment}},
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_Health_DBDown(t *testing.T) {
	router := newTestRouter(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// 全トリガールートがPOSTで配線されていることを確認する。
func TestRouter_TriggerRoutes(t *testing.T) {
	router := newTestRouter(nil)

	routes := []struct {
		path string
		body string
	}{
		{path: "/api/tasks/step", body: `{}`},
		{path: "/api/checks/sweep", body: `{}`},
		{path: "/api/checks/compare", body: `{"post_id":"post-1"}`},
	}

	for _, route := range routes {
		t.Run(route.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, route.path, strings.NewReader(route.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("POST %s: status = %d, want %d", route.path, w.Code, http.StatusOK)
			}
		})
	}
}

// OPTIONSプリフライトは全ルートで空ボディの200を返す。
func TestRouter_Preflight(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/checks/sweep", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
