package model

import "time"

// CheckLog は確認処理1回分の監査ログを表す。
// 成功・失敗を問わず試行ごとに1行追記され、以降更新されない。
// UIのログビューアから参照されるため、リクエストURLと生レスポンスを保持する。
type CheckLog struct {
	ID           string
	PostID       string
	CheckType    CheckType
	Status       CheckLogStatus
	RequestURL   string
	RawResponse  string
	ErrorMessage string
	CreatedAt    time.Time
}

// CheckLogStatus は確認試行の結果を表す。
type CheckLogStatus string

const (
	// CheckLogStatusSuccess は確認試行が成功した状態。
	CheckLogStatusSuccess CheckLogStatus = "success"
	// CheckLogStatusError は確認試行が失敗した状態。
	CheckLogStatusError CheckLogStatus = "error"
)
