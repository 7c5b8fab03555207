package model

import "time"

// ObservedComment は1回のスキャンで外部ソースから実際に取得したコメントのスナップショット。
// Processorが書き込み、同一実行内のComparatorが読み出す。
// (post_id, external_comment_id) を自然キーとしてUPSERTされる。
type ObservedComment struct {
	ID                string
	PostID            string
	ExternalCommentID string
	Content           string
	ContentNormalized string
	ObservedAt        time.Time
}

// ObservedPost は承認確認のスキャンで取得したグループ投稿のスナップショット。
// (post_id, external_post_id, group_id) を自然キーとしてUPSERTされる。
type ObservedPost struct {
	ID                string
	PostID            string
	ExternalPostID    string
	GroupID           string
	Content           string
	ContentNormalized string
	ObservedAt        time.Time
}

// CompareResult は比較処理の集計結果を表す。
// 1件の期待行に複数の観測行がマッチしても1件として数える（存在判定）。
type CompareResult struct {
	Found    int `json:"found"`
	NotFound int `json:"not_found"`
	Total    int `json:"total"`
}
