// Package taskrunner はシーディング確認タスクの逐次実行を提供する。
// 1回のステップ実行につきトラッキング対象1件を処理する。
// 処理状態はすべてデータベースに保持し、プロセス内に長期状態を持たないため、
// どのプロセスからステップを呼んでも安全に進行する。
package taskrunner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/seedman/internal/model"
	"github.com/hitoshi/seedman/internal/repository"
)

// CheckPipeline は確認パイプラインの実行インターフェース。
type CheckPipeline interface {
	// Run は対象1件のフェッチ→プロセス→比較を実行する。
	Run(ctx context.Context, post *model.TrackedPost) (*model.CompareResult, error)
}

// StepResult は1回のステップ実行の結果を表す。
type StepResult struct {
	// TaskID は処理したタスクのID。処理対象のタスクがない場合は空。
	TaskID string `json:"task_id,omitempty"`
	// TaskStatus はステップ実行後のタスク状態。
	TaskStatus model.TaskStatus `json:"task_status,omitempty"`
	// PostID は処理したトラッキング対象のID。対象がなかった場合は空。
	PostID string `json:"post_id,omitempty"`
	// ClaimLost は別の実行が先に同じ対象をクレームしたため
	// このステップでは処理をスキップしたことを示す。
	ClaimLost bool `json:"claim_lost,omitempty"`
	// Progress はステップ実行後の進捗（current/total）。
	ProgressCurrent int `json:"progress_current"`
	ProgressTotal   int `json:"progress_total"`
	// CheckResult は確認パイプラインの比較結果。パイプラインが失敗した
	// 場合はnil（失敗は監査ログに記録され、タスクは継続する）。
	CheckResult *model.CompareResult `json:"check_result,omitempty"`
}

// Runner はタスクの状態遷移とステップ実行を管理する。
//
// タスクは pending → running → {completed, failed} と遷移する。
// 個別対象の確認失敗はタスクを失敗させず、監査ログへの記録のみで継続する。
// タスクがfailedになるのはデータベース操作など実行基盤のエラーのみ。
type Runner struct {
	tasks    repository.TaskRepository
	posts    repository.PostRepository
	pipeline CheckPipeline
	logger   *slog.Logger
}

// NewRunner はRunnerの新しいインスタンスを生成する。
func NewRunner(
	tasks repository.TaskRepository,
	posts repository.PostRepository,
	pipeline CheckPipeline,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		tasks:    tasks,
		posts:    posts,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Step はタスクを1ステップ進める。
//
// runningのタスク、なければ最も古いpendingのタスクを選び、その
// プロジェクトの次のトラッキング対象1件を確認する。対象はlast_checked_atの
// 条件付き更新でクレームしてから処理するため、並行するステップ実行が
// 同じ対象を二重に処理することはない。クレームに敗れた場合は進捗を
// 進めずにスキップする。
//
// 次の対象が存在しない、または進捗が総数に達した場合はタスクを
// completedにする。処理対象のタスクが存在しない場合は空の結果を返す。
func (r *Runner) Step(ctx context.Context) (*StepResult, error) {
	task, err := r.tasks.SelectNext(ctx)
	if err != nil {
		return nil, r.failRunning(ctx, fmt.Errorf("タスクの選択に失敗しました: %w", err))
	}
	if task == nil {
		r.logger.Info("処理対象のタスクはありません")
		return &StepResult{}, nil
	}

	if task.Status == model.TaskStatusPending {
		if err := r.tasks.MarkRunning(ctx, task.ID); err != nil {
			return nil, r.failRunning(ctx, fmt.Errorf("タスクの開始に失敗しました: %w", err))
		}
		task.Status = model.TaskStatusRunning
	}

	result := &StepResult{
		TaskID:          task.ID,
		TaskStatus:      task.Status,
		ProgressCurrent: task.ProgressCurrent,
		ProgressTotal:   task.ProgressTotal,
	}

	post, err := r.posts.NextForProject(ctx, task.ProjectID)
	if err != nil {
		return nil, r.failRunning(ctx, fmt.Errorf("次の対象の取得に失敗しました: %w", err))
	}
	if post == nil {
		// 対象が尽きたら進捗にかかわらず完了とする
		if err := r.tasks.MarkCompleted(ctx, task.ID); err != nil {
			return nil, r.failRunning(ctx, fmt.Errorf("タスクの完了に失敗しました: %w", err))
		}
		result.TaskStatus = model.TaskStatusCompleted
		r.logger.Info("確認対象が尽きたためタスクを完了しました",
			slog.String("task_id", task.ID),
			slog.Int("progress_current", task.ProgressCurrent),
			slog.Int("progress_total", task.ProgressTotal),
		)
		return result, nil
	}

	result.PostID = post.ID

	claimed, err := r.posts.Claim(ctx, post.ID, post.LastCheckedAt)
	if err != nil {
		return nil, r.failRunning(ctx, fmt.Errorf("対象のクレームに失敗しました: %w", err))
	}
	if !claimed {
		result.ClaimLost = true
		r.logger.Info("別の実行が対象をクレームしたためスキップします",
			slog.String("task_id", task.ID),
			slog.String("post_id", post.ID),
		)
		return result, nil
	}

	checkResult, err := r.pipeline.Run(ctx, post)
	if err != nil {
		// 個別対象の失敗は監査ログに記録済み。タスクは継続する。
		r.logger.Error("対象の確認に失敗しました",
			slog.String("task_id", task.ID),
			slog.String("post_id", post.ID),
			slog.String("error", err.Error()),
		)
	} else {
		result.CheckResult = checkResult
	}

	updated, err := r.tasks.AdvanceProgress(ctx, task.ID)
	if err != nil {
		return nil, r.failRunning(ctx, fmt.Errorf("進捗の更新に失敗しました: %w", err))
	}
	result.ProgressCurrent = updated.ProgressCurrent
	result.ProgressTotal = updated.ProgressTotal

	if updated.ProgressCurrent >= updated.ProgressTotal {
		if err := r.tasks.MarkCompleted(ctx, task.ID); err != nil {
			return nil, r.failRunning(ctx, fmt.Errorf("タスクの完了に失敗しました: %w", err))
		}
		result.TaskStatus = model.TaskStatusCompleted
	}

	r.logger.Info("タスクのステップ実行が完了しました",
		slog.String("task_id", task.ID),
		slog.String("post_id", post.ID),
		slog.String("task_status", string(result.TaskStatus)),
		slog.Int("progress_current", result.ProgressCurrent),
		slog.Int("progress_total", result.ProgressTotal),
	)

	return result, nil
}

// failRunning は実行基盤エラーの後始末としてrunningのタスクをfailedにする。
// 後始末自体の失敗は元のエラーを優先してアプリケーションログのみに残す。
func (r *Runner) failRunning(ctx context.Context, cause error) error {
	if err := r.tasks.FailRunning(ctx, cause.Error()); err != nil {
		r.logger.Error("実行中タスクの失敗記録に失敗しました",
			slog.String("error", err.Error()),
		)
	}
	return cause
}
