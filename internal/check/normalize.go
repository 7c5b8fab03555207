// Package check はシーディング確認のコア処理を提供する。
// フェッチャー、プロセッサー、コンパレーター、それらを束ねるパイプライン、
// および確認頻度のパースを含む。
package check

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize は比較用にテキストを正規化する。
// Unicode NFC正規化の後に小文字化する。
// ベトナム語等の合成文字は入力経路によって合成済み・結合文字列の
// 両方の表現で届くため、NFCで表現を揃えてから比較する。
func Normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
