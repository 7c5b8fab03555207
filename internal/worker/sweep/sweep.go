// Package sweep はトラッキング対象の定期確認スイープを提供する。
// 確認周期が到来した対象をすべて拾い、並列制御のもとで
// 確認パイプラインを実行する。
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/seedman/internal/check"
	"github.com/hitoshi/seedman/internal/model"
	"github.com/hitoshi/seedman/internal/repository"
)

// CheckPipeline は確認パイプラインの実行インターフェース。
type CheckPipeline interface {
	// Run は対象1件のフェッチ→プロセス→比較を実行する。
	Run(ctx context.Context, post *model.TrackedPost) (*model.CompareResult, error)
}

// 1件分のスイープ結果の状態
const (
	// ItemStatusSuccess は確認が正常に完了した状態。
	ItemStatusSuccess = "success"
	// ItemStatusError は確認が失敗した状態。失敗は監査ログにも記録される。
	ItemStatusError = "error"
	// ItemStatusSkipped は別の実行が先にクレームしたためスキップした状態。
	ItemStatusSkipped = "skipped"
)

// ItemResult はスイープにおける対象1件分の実行結果。
type ItemResult struct {
	PostID  string `json:"post_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Sweeper は確認周期が到来した対象の一括確認を行う。
//
// 1サイクルの流れ: 定期確認の候補をすべて取得し、check_frequencyから
// dueを判定し、dueの対象をlast_checked_atの条件付き更新でクレームして
// から並列で確認パイプラインを実行する。個別対象の失敗はサイクル全体を
// 失敗させず、結果の1要素として報告される。
type Sweeper struct {
	posts          repository.PostRepository
	pipeline       CheckPipeline
	logger         *slog.Logger
	maxConcurrency int
}

// NewSweeper はSweeperの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewSweeper(
	posts repository.PostRepository,
	pipeline CheckPipeline,
	logger *slog.Logger,
	maxConcurrency int,
) *Sweeper {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Sweeper{
		posts:          posts,
		pipeline:       pipeline,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスイープを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("定期確認スイープを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("スイープサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("定期確認スイープを停止しました")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("スイープサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は確認周期が到来した対象を1回スイープする。
// dueの対象ごとに1要素の結果を返す。個別対象の失敗は結果に
// 含めて報告し、戻り値のエラーは候補の取得失敗のみ。
func (s *Sweeper) RunOnce(ctx context.Context) ([]ItemResult, error) {
	start := time.Now()

	candidates, err := s.posts.ListActiveChecking(ctx)
	if err != nil {
		return nil, err
	}

	due := s.selectDue(candidates, time.Now())
	if len(due) == 0 {
		s.logger.Info("確認周期が到来した対象はありません",
			slog.Int("candidate_count", len(candidates)),
		)
		return []ItemResult{}, nil
	}

	s.logger.Info("スイープサイクルを開始します",
		slog.Int("candidate_count", len(candidates)),
		slog.Int("due_count", len(due)),
	)

	results := make([]ItemResult, len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, post := range due {
		i, post := i, post
		g.Go(func() error {
			results[i] = s.checkOne(gctx, post)
			return nil
		})
	}
	// ワーカーはエラーを返さないため待つだけでよい
	_ = g.Wait()

	duration := time.Since(start)
	s.logger.Info("スイープサイクルが完了しました",
		slog.Int("due_count", len(due)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return results, nil
}

// selectDue は候補から確認周期が到来した対象を選び出す。
// check_frequencyが空の対象は定期確認の対象外。解析できない
// check_frequencyはログに記録してスキップする。
func (s *Sweeper) selectDue(candidates []*model.TrackedPost, now time.Time) []*model.TrackedPost {
	var due []*model.TrackedPost
	for _, post := range candidates {
		if post.CheckFrequency == "" {
			continue
		}

		interval, err := check.ParseFrequency(post.CheckFrequency)
		if err != nil {
			s.logger.Warn("確認周期を解析できないためスキップします",
				slog.String("post_id", post.ID),
				slog.String("check_frequency", post.CheckFrequency),
				slog.String("error", err.Error()),
			)
			continue
		}

		if check.IsDue(post.LastCheckedAt, interval, now) {
			due = append(due, post)
		}
	}
	return due
}

// checkOne は対象1件をクレームして確認パイプラインを実行する。
func (s *Sweeper) checkOne(ctx context.Context, post *model.TrackedPost) ItemResult {
	claimed, err := s.posts.Claim(ctx, post.ID, post.LastCheckedAt)
	if err != nil {
		return ItemResult{PostID: post.ID, Status: ItemStatusError, Message: err.Error()}
	}
	if !claimed {
		return ItemResult{PostID: post.ID, Status: ItemStatusSkipped, Message: "別の実行がクレーム済み"}
	}

	result, err := s.pipeline.Run(ctx, post)
	if err != nil {
		return ItemResult{PostID: post.ID, Status: ItemStatusError, Message: err.Error()}
	}

	return ItemResult{
		PostID:  post.ID,
		Status:  ItemStatusSuccess,
		Message: fmt.Sprintf("found: %d / total: %d", result.Found, result.Total),
	}
}
