package check

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseFrequency は "<N>_<unit>" 形式の確認頻度文字列をtime.Durationに変換する。
// 対応単位は minute / hour / day。
// 認識できない形式はエラーを返す（呼び出し側がスキップを判断する）。
func ParseFrequency(s string) (time.Duration, error) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("確認頻度の形式が不正です: %q", s)
	}

	n, err := strconv.Atoi(parts[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("確認頻度の数値が不正です: %q", s)
	}

	switch parts[1] {
	case "minute":
		return time.Duration(n) * time.Minute, nil
	case "hour":
		return time.Duration(n) * time.Hour, nil
	case "day":
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("確認頻度の単位が不正です: %q", s)
	}
}

// IsDue は対象が再確認の期限を迎えているかを判定する。
// lastCheckedAtがnil（未確認）の場合は常にdueとする。
func IsDue(lastCheckedAt *time.Time, interval time.Duration, now time.Time) bool {
	if lastCheckedAt == nil {
		return true
	}
	return now.Sub(*lastCheckedAt) >= interval
}
