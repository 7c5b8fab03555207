package model

import "time"

// TrackedPost は継続確認の対象（トラッキング対象）を表す。
// コメント確認ではFacebook投稿1件、承認確認では複数グループを横断する
// キーワード監視対象1件に対応する。
type TrackedPost struct {
	ID             string
	ProjectID      string
	ExternalID     string   // コメント確認: Facebook投稿ID
	GroupIDs       []string // 承認確認: 対象FacebookグループIDのリスト
	CheckType      CheckType
	Status         PostStatus
	IsActive       bool
	CheckFrequency string // "<N>_<unit>" 形式（例: "2_hour"）。空の場合は定期確認の対象外
	TimeWindow     string // 承認確認のURLテンプレートに埋め込む期間指定文字列
	LastCheckedAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CheckType は確認処理のバリアントを表す。
// フェッチ・プロセス・比較の各段でどの実装が動くかを決定する。
type CheckType string

const (
	// CheckTypeComment はシードコメントの掲載確認。
	CheckTypeComment CheckType = "comment_check"
	// CheckTypeApproval はグループ投稿のキーワード承認確認。
	CheckTypeApproval CheckType = "post_approval"
)

// PostStatus はトラッキング対象の監視状態を表す。
type PostStatus string

const (
	// PostStatusChecking は監視継続中の状態。
	PostStatusChecking PostStatus = "checking"
	// PostStatusDone は監視を終えた状態。
	PostStatusDone PostStatus = "done"
)
