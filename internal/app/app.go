// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/seedman/internal/check"
	"github.com/hitoshi/seedman/internal/config"
	"github.com/hitoshi/seedman/internal/database"
	"github.com/hitoshi/seedman/internal/handler"
	"github.com/hitoshi/seedman/internal/logger"
	"github.com/hitoshi/seedman/internal/metrics"
	"github.com/hitoshi/seedman/internal/middleware"
	"github.com/hitoshi/seedman/internal/repository"
	"github.com/hitoshi/seedman/internal/security"
	"github.com/hitoshi/seedman/internal/worker/cleanup"
	"github.com/hitoshi/seedman/internal/worker/sweep"
	"github.com/hitoshi/seedman/internal/worker/taskrunner"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// checkDeps は確認パイプライン一式の依存をまとめた構造体。
// serveとworkerの両モードが同じワイヤリングを共有する。
type checkDeps struct {
	pipeline   *check.Pipeline
	fetcher    *check.Fetcher
	processor  *check.Processor
	comparator *check.Comparator
	posts      repository.PostRepository
	tasks      repository.TaskRepository
	registry   *prometheus.Registry
}

// buildCheckDeps は確認パイプライン一式をワイヤリングする。
func buildCheckDeps(db *sql.DB, cfg *config.Config) *checkDeps {
	taskRepo := repository.NewPostgresTaskRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	seedCommentRepo := repository.NewPostgresSeedCommentRepo(db)
	keywordRepo := repository.NewPostgresKeywordRepo(db)
	observedCommentRepo := repository.NewPostgresObservedCommentRepo(db)
	observedPostRepo := repository.NewPostgresObservedPostRepo(db)
	checkLogRepo := repository.NewPostgresCheckLogRepo(db)
	settingsRepo := repository.NewPostgresSettingsRepo(db)

	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	fetcher := check.NewFetcher(settingsRepo, ssrfGuard, slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize)
	processor := check.NewProcessor(observedCommentRepo, observedPostRepo, sanitizer, slog.Default())
	comparator := check.NewComparator(seedCommentRepo, keywordRepo, observedCommentRepo, observedPostRepo, slog.Default())
	pipeline := check.NewPipeline(fetcher, processor, comparator, checkLogRepo, collector, slog.Default())

	return &checkDeps{
		pipeline:   pipeline,
		fetcher:    fetcher,
		processor:  processor,
		comparator: comparator,
		posts:      postRepo,
		tasks:      taskRepo,
		registry:   registry,
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	deps := buildCheckDeps(db, cfg)

	runner := taskrunner.NewRunner(deps.tasks, deps.posts, deps.pipeline, slog.Default())
	sweeper := sweep.NewSweeper(deps.posts, deps.pipeline, slog.Default(), cfg.SweepMaxConcurrent)

	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.TriggerRate = rate.Limit(float64(cfg.RateLimitTrigger) / 60.0)
	rateLimiterCfg.TriggerBurst = cfg.RateLimitTrigger
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		DB:                db,
		Gatherer:          deps.registry,
		TaskRunner:        runner,
		Sweeper:           sweeper,
		Fetcher:           deps.fetcher,
		Processor:         deps.processor,
		Comparator:        deps.comparator,
		Posts:             deps.posts,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、定期確認スイープとクリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	deps := buildCheckDeps(db, cfg)

	sweeper := sweep.NewSweeper(deps.posts, deps.pipeline, slog.Default(), cfg.SweepMaxConcurrent)

	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	cleanupJob.RetentionDays = cfg.LogRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("sweep_interval", cfg.SweepInterval),
		slog.Int("max_concurrent", cfg.SweepMaxConcurrent),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 定期確認スイープをメインgoroutineで実行（ブロッキング）
	sweeper.Start(ctx, cfg.SweepInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
