package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, config, check, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodePostNotFound     = "POST_NOT_FOUND"
	ErrCodeSettingMissing   = "SETTING_MISSING"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeParseFailed      = "PARSE_FAILED"
	ErrCodeSSRFBlocked      = "SSRF_BLOCKED"
	ErrCodeCheckTypeUnknown = "CHECK_TYPE_UNKNOWN"
)

// NewInvalidRequestError はリクエスト解析失敗エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewPostNotFoundError はトラッキング対象未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定されたトラッキング対象が見つかりません: %s", postID),
		Category: "check",
		Action:   "対象IDを確認してください。",
	}
}

// NewSettingMissingError は設定未登録エラーを生成する。
// URLテンプレートやアクセストークンが設定テーブルに存在しない場合に使用する。
func NewSettingMissingError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeSettingMissing,
		Message:  fmt.Sprintf("必要な設定が登録されていません: %s", key),
		Category: "config",
		Action:   "設定画面からAPIのURLテンプレートとアクセストークンを登録してください。",
	}
}

// NewFetchFailedError は外部APIフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("外部APIの取得に失敗しました: %s", reason),
		Category: "check",
		Action:   "アクセストークンの有効期限とURLテンプレートを確認してください。",
	}
}

// NewParseFailedError はレスポンス解析失敗エラーを生成する。
// 生レスポンスは呼び出し元が確認ログに保存済みのため、このエラー自体は保持しない。
func NewParseFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeParseFailed,
		Message:  fmt.Sprintf("レスポンスの解析に失敗しました: %s", reason),
		Category: "check",
		Action:   "確認ログの生レスポンスを確認してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、設定されたURLへのアクセスがブロックされました。",
		Category: "config",
		Action:   "URLテンプレートが公開APIを指しているか確認してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewCheckTypeUnknownError は未知の確認タイプエラーを生成する。
func NewCheckTypeUnknownError(checkType string) *APIError {
	return &APIError{
		Code:     ErrCodeCheckTypeUnknown,
		Message:  fmt.Sprintf("未知の確認タイプです: %s", checkType),
		Category: "validation",
		Action:   "確認タイプには comment_check または post_approval を指定してください。",
	}
}
