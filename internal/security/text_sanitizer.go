// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService は外部APIから取得したコメント・投稿本文を
// プレーンテキストに正規化する。取得コンテンツはUIのログビューアに
// そのまま表示されうるため、bluemondayのStrictPolicyで
// 全HTMLタグを除去してから保存する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はテキストサニタイズ機能のインターフェースを定義する。
// 観測行（observed_comments / observed_posts）の保存前に使用される。
type TextSanitizerService interface {
	// SanitizeText は入力から全HTMLタグを除去したプレーンテキストを返す。
	// タグ除去後の前後空白もトリムする。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、script等の危険タグを含む
// あらゆるマークアップがテキストのみに落ちる。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力から全HTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
