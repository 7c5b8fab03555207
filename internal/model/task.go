// Package model はドメインモデルを定義する。
package model

import "time"

// Task はシーディング確認のバッチ処理ジョブを表す。
// 1回の実行（ステップ）につきトラッキング対象1件を処理し、
// progress_currentがprogress_totalに達するか対象が尽きた時点で完了する。
type Task struct {
	ID              string
	ProjectID       string
	Status          TaskStatus
	ProgressCurrent int
	ProgressTotal   int
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaskStatus はタスクの状態を表す。
// pending → running → {completed, failed} の一方向にのみ遷移する。
type TaskStatus string

const (
	// TaskStatusPending は未着手のタスク状態。
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning は処理中のタスク状態。
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted は正常完了したタスク状態（終端）。
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed は異常終了したタスク状態（終端）。
	TaskStatusFailed TaskStatus = "failed"
)

// IsTerminal はタスクが終端状態（completed / failed）かどうかを返す。
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}
