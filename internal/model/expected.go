package model

import "time"

// SeedComment はコメント確認で掲載を期待するシードコメントを表す。
// UIからの一括登録で作成され、statusは比較処理（Comparator）のみが更新する。
type SeedComment struct {
	ID        string
	PostID    string
	Content   string
	Status    SeedCommentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SeedCommentStatus はシードコメントの掲載確認結果を表す。
type SeedCommentStatus string

const (
	// SeedCommentStatusVisible はコメントが掲載確認済みの状態。
	SeedCommentStatusVisible SeedCommentStatus = "visible"
	// SeedCommentStatusNotVisible はコメントが未確認の状態（初期値）。
	SeedCommentStatusNotVisible SeedCommentStatus = "not_visible"
)

// Keyword は承認確認でグループ投稿内に出現を期待するキーワードを表す。
// statusは比較処理（Comparator）のみが更新する。
type Keyword struct {
	ID        string
	PostID    string
	Content   string
	Status    KeywordStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KeywordStatus はキーワードの検出結果を表す。
type KeywordStatus string

const (
	// KeywordStatusFound はキーワードが検出済みの状態。
	KeywordStatusFound KeywordStatus = "found"
	// KeywordStatusNotFound はキーワードが未検出の状態（初期値）。
	KeywordStatusNotFound KeywordStatus = "not_found"
)
