// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/seedman/internal/model"
)

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Create はタスクを作成する。
	// 通常タスクはUI側で作成されるが、テストおよび運用ツールから使用する。
	Create(ctx context.Context, task *model.Task) error

	// SelectNext は次に処理すべきタスクを返す。
	// runningのタスクを優先し、なければ最も古いpendingのタスクを返す（FIFO）。
	// 対象が存在しない場合はnilを返す。
	SelectNext(ctx context.Context) (*model.Task, error)

	// MarkRunning はタスクをrunningに遷移させる。
	MarkRunning(ctx context.Context, id string) error

	// AdvanceProgress はprogress_currentを1進め、更新後のタスクを返す。
	AdvanceProgress(ctx context.Context, id string) (*model.Task, error)

	// MarkCompleted はタスクをcompletedに遷移させる。
	MarkCompleted(ctx context.Context, id string) error

	// MarkFailed はタスクをfailedに遷移させ、エラーメッセージを記録する。
	MarkFailed(ctx context.Context, id string, errorMessage string) error

	// FailRunning は現在runningのタスクをすべてfailedに遷移させる。
	// タスクランナーのトップレベルエラー時の後始末に使用する。
	FailRunning(ctx context.Context, errorMessage string) error
}

// PostRepository はトラッキング対象データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDのトラッキング対象を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.TrackedPost, error)

	// Create はトラッキング対象を作成する。
	Create(ctx context.Context, post *model.TrackedPost) error

	// NextForProject は指定プロジェクトで次に確認すべき対象を1件返す。
	// status = 'checking' の対象を last_checked_at ASC NULLS FIRST で順序付けし、
	// 未確認の対象と最も確認が古い対象を優先する。対象が存在しない場合はnilを返す。
	NextForProject(ctx context.Context, projectID string) (*model.TrackedPost, error)

	// Claim は対象をクレームする（last_checked_atの条件付き更新）。
	// expectedには読み出し時点のlast_checked_atを渡す。値が一致した場合のみ
	// last_checked_atをnow()に更新してtrueを返す。別の実行が先にクレームして
	// いた場合は何も更新せずfalseを返す。
	Claim(ctx context.Context, id string, expected *time.Time) (bool, error)

	// ListActiveChecking は定期確認の候補（is_active かつ status = 'checking'）を
	// すべて返す。dueの判定は呼び出し側がcheck_frequencyから行う。
	ListActiveChecking(ctx context.Context) ([]*model.TrackedPost, error)
}

// SeedCommentRepository はシードコメントの永続化インターフェース。
type SeedCommentRepository interface {
	// ListByPost は指定対象のシードコメント一覧を返す。
	ListByPost(ctx context.Context, postID string) ([]*model.SeedComment, error)

	// Create はシードコメントを作成する。
	Create(ctx context.Context, comment *model.SeedComment) error

	// UpdateStatus はシードコメントの掲載確認結果を更新する。
	UpdateStatus(ctx context.Context, id string, status model.SeedCommentStatus) error
}

// KeywordRepository はキーワードの永続化インターフェース。
type KeywordRepository interface {
	// ListByPost は指定対象のキーワード一覧を返す。
	ListByPost(ctx context.Context, postID string) ([]*model.Keyword, error)

	// Create はキーワードを作成する。
	Create(ctx context.Context, keyword *model.Keyword) error

	// UpdateStatus はキーワードの検出結果を更新する。
	UpdateStatus(ctx context.Context, id string, status model.KeywordStatus) error
}

// ObservedCommentRepository は観測コメントの永続化インターフェース。
// (post_id, external_comment_id) を自然キーとするUPSERTを提供する。
type ObservedCommentRepository interface {
	// FindByNaturalKey は自然キーで観測コメントを検索する。見つからない場合はnilを返す。
	FindByNaturalKey(ctx context.Context, postID, externalCommentID string) (*model.ObservedComment, error)

	// Insert は観測コメントを挿入する。
	Insert(ctx context.Context, comment *model.ObservedComment) error

	// Update は観測コメントの内容と観測時刻を更新する。
	Update(ctx context.Context, comment *model.ObservedComment) error

	// ListByPost は指定対象の観測コメント一覧を返す。
	ListByPost(ctx context.Context, postID string) ([]*model.ObservedComment, error)
}

// ObservedPostRepository は観測グループ投稿の永続化インターフェース。
// (post_id, external_post_id, group_id) を自然キーとするUPSERTを提供する。
type ObservedPostRepository interface {
	// FindByNaturalKey は自然キーで観測投稿を検索する。見つからない場合はnilを返す。
	FindByNaturalKey(ctx context.Context, postID, externalPostID, groupID string) (*model.ObservedPost, error)

	// Insert は観測投稿を挿入する。
	Insert(ctx context.Context, post *model.ObservedPost) error

	// Update は観測投稿の内容と観測時刻を更新する。
	Update(ctx context.Context, post *model.ObservedPost) error

	// ListByPost は指定対象の観測投稿一覧を返す。
	ListByPost(ctx context.Context, postID string) ([]*model.ObservedPost, error)
}

// CheckLogRepository は確認監査ログの永続化インターフェース。追記専用。
type CheckLogRepository interface {
	// Insert は確認ログを1行追記する。
	Insert(ctx context.Context, log *model.CheckLog) error
}

// SettingsRepository は可変設定（URLテンプレート、トークン）の読み出しインターフェース。
// 設定は呼び出しごとに読み直す。プロセスに長期状態を持たないため、
// キャッシュは行わない。
type SettingsRepository interface {
	// Get は指定キーの設定値を返す。未登録の場合は空文字列を返す（エラーにしない）。
	Get(ctx context.Context, key string) (string, error)

	// Set は設定値を登録・更新する。テストおよび運用ツールから使用する。
	Set(ctx context.Context, key, value string) error
}

// 設定テーブルの既知キー
const (
	// SettingKeyCommentURLTemplate はコメント一覧取得APIのURLテンプレート。
	// {post-id} プレースホルダを含む。
	SettingKeyCommentURLTemplate = "fb_comment_url_template"
	// SettingKeyApprovalURLTemplate はグループ投稿一覧取得APIのURLテンプレート。
	// {group-id} と {time_check} プレースホルダを含む。
	SettingKeyApprovalURLTemplate = "fb_approval_url_template"
	// SettingKeyAccessToken はGraph APIのアクセストークン。
	SettingKeyAccessToken = "fb_access_token"
)
