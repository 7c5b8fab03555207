package check

import (
	"testing"
	"time"
)

func TestParseFrequency_Minute(t *testing.T) {
	d, err := ParseFrequency("30_minute")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 30*time.Minute {
		t.Errorf("ParseFrequency = %v, want %v", d, 30*time.Minute)
	}
}

func TestParseFrequency_Hour(t *testing.T) {
	d, err := ParseFrequency("2_hour")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 2*time.Hour {
		t.Errorf("ParseFrequency = %v, want %v", d, 2*time.Hour)
	}
}

func TestParseFrequency_Day(t *testing.T) {
	d, err := ParseFrequency("1_day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 24*time.Hour {
		t.Errorf("ParseFrequency = %v, want %v", d, 24*time.Hour)
	}
}

// 認識できない形式はエラーを返すことを検証（スキップ判断は呼び出し側）
func TestParseFrequency_InvalidFormats(t *testing.T) {
	for _, s := range []string{
		"garbage",
		"",
		"2_week",
		"_hour",
		"abc_hour",
		"-1_hour",
		"0_minute",
	} {
		if _, err := ParseFrequency(s); err == nil {
			t.Errorf("ParseFrequency(%q) はエラーを返すべき", s)
		}
	}
}

// 3時間前に確認済み・頻度2時間の対象はdueであることを検証
func TestIsDue_OverdueItem(t *testing.T) {
	now := time.Now()
	last := now.Add(-3 * time.Hour)
	if !IsDue(&last, 2*time.Hour, now) {
		t.Error("3時間前に確認済み・頻度2時間の対象はdueであるべき")
	}
}

// 1時間前に確認済み・頻度2時間の対象はdueでないことを検証
func TestIsDue_RecentlyCheckedItem(t *testing.T) {
	now := time.Now()
	last := now.Add(-1 * time.Hour)
	if IsDue(&last, 2*time.Hour, now) {
		t.Error("1時間前に確認済み・頻度2時間の対象はdueでないべき")
	}
}

// 未確認（lastCheckedAt = nil）の対象は常にdueであることを検証
func TestIsDue_NeverChecked(t *testing.T) {
	if !IsDue(nil, 24*time.Hour, time.Now()) {
		t.Error("未確認の対象は常にdueであるべき")
	}
}

// 経過時間が頻度とちょうど等しい場合はdueであることを検証
func TestIsDue_ExactBoundary(t *testing.T) {
	now := time.Now()
	last := now.Add(-2 * time.Hour)
	if !IsDue(&last, 2*time.Hour, now) {
		t.Error("経過時間が頻度と等しい場合はdueであるべき")
	}
}
