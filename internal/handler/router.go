package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/seedman/internal/metrics"
	"github.com/hitoshi/seedman/internal/middleware"
)

// DBPinger はデータベースの死活確認インターフェース。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 死活確認・メトリクス
	DB       DBPinger
	Gatherer prometheus.Gatherer

	// 確認処理
	TaskRunner StepRunner
	Sweeper    SweepRunner
	Fetcher    FetchServiceInterface
	Processor  ProcessServiceInterface
	Comparator CompareServiceInterface
	Posts      PostFinder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → CORSMiddleware
//
// 実行トリガーのルート（/api/*）にはさらにクライアント別レート制限がかかる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	taskHandler := NewTaskHandler(deps.TaskRunner)
	checkHandler := NewCheckHandler(deps.Sweeper, deps.Fetcher, deps.Processor, deps.Comparator, deps.Posts)

	// --- 運用ルート ---

	r.Get("/health", newHealthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- 実行トリガーのルート ---
	// ミドルウェアスタック: RateLimit(Trigger)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.TriggerMiddleware())

		r.Post("/api/tasks/step", taskHandler.Step)

		r.Route("/api/checks", func(r chi.Router) {
			r.Post("/sweep", checkHandler.Sweep)
			r.Post("/comments/fetch", checkHandler.FetchComments)
			r.Post("/comments/process", checkHandler.ProcessComments)
			r.Post("/approval/fetch", checkHandler.FetchApproval)
			r.Post("/approval/process", checkHandler.ProcessApproval)
			r.Post("/compare", checkHandler.Compare)
		})
	})

	return r
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status string `json:"status"`
}

// newHealthHandler はデータベース接続を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db DBPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			writeJSONResponse(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
			return
		}
		writeJSONResponse(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
