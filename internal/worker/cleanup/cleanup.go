// Package cleanup は確認監査ログと観測行の自動削除ジョブを提供する。
// 保持期間（デフォルト30日）を超過したcheck_logsと、監視を終えた対象の
// 古い観測行を日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は保持期間を超過した監査ログと観測行の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // 監査ログの保持日数（デフォルト: 30）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は30日。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: 30,
	}
}

// Run は保持期間を超過した行を削除する。
// check_logsはcreated_atが保持期限より古い行をDELETEする。
// 観測行（observed_comments / observed_posts）は、監視を終えた
// （status = 'done'）対象に属し、かつ観測時刻が保持期限より古い行のみ
// 削除する。監視継続中の対象の観測行は比較の入力となるため保持する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	logCount, err := j.deleteRows(ctx,
		`DELETE FROM check_logs WHERE created_at < now() - $1::interval`, interval)
	if err != nil {
		return fmt.Errorf("監査ログのクリーンアップに失敗: %w", err)
	}

	commentCount, err := j.deleteRows(ctx,
		`DELETE FROM observed_comments oc
		 USING tracked_posts tp
		 WHERE oc.post_id = tp.id
		   AND tp.status = 'done'
		   AND oc.observed_at < now() - $1::interval`, interval)
	if err != nil {
		return fmt.Errorf("観測コメントのクリーンアップに失敗: %w", err)
	}

	postCount, err := j.deleteRows(ctx,
		`DELETE FROM observed_posts op
		 USING tracked_posts tp
		 WHERE op.post_id = tp.id
		   AND tp.status = 'done'
		   AND op.observed_at < now() - $1::interval`, interval)
	if err != nil {
		return fmt.Errorf("観測投稿のクリーンアップに失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_check_logs", logCount),
		slog.Int64("deleted_observed_comments", commentCount),
		slog.Int64("deleted_observed_posts", postCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteRows は削除クエリを1本実行し、削除件数を返す。
func (j *CleanupJob) deleteRows(ctx context.Context, query, interval string) (int64, error) {
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("クリーンアップクエリの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return 0, err
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	return count, nil
}
