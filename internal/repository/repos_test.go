package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/hitoshi/seedman/internal/model"
)

// 各PostgresリポジトリがインターフェースをImplementsしていることを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ TaskRepository = (*PostgresTaskRepo)(nil)
	var _ PostRepository = (*PostgresPostRepo)(nil)
	var _ SeedCommentRepository = (*PostgresSeedCommentRepo)(nil)
	var _ KeywordRepository = (*PostgresKeywordRepo)(nil)
	var _ ObservedCommentRepository = (*PostgresObservedCommentRepo)(nil)
	var _ ObservedPostRepository = (*PostgresObservedPostRepo)(nil)
	var _ CheckLogRepository = (*PostgresCheckLogRepo)(nil)
	var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
}

// 各コンストラクタが非nilのリポジトリを返すことを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresTaskRepo(nil) == nil {
		t.Error("NewPostgresTaskRepo should return non-nil")
	}
	if NewPostgresPostRepo(nil) == nil {
		t.Error("NewPostgresPostRepo should return non-nil")
	}
	if NewPostgresSeedCommentRepo(nil) == nil {
		t.Error("NewPostgresSeedCommentRepo should return non-nil")
	}
	if NewPostgresKeywordRepo(nil) == nil {
		t.Error("NewPostgresKeywordRepo should return non-nil")
	}
	if NewPostgresObservedCommentRepo(nil) == nil {
		t.Error("NewPostgresObservedCommentRepo should return non-nil")
	}
	if NewPostgresObservedPostRepo(nil) == nil {
		t.Error("NewPostgresObservedPostRepo should return non-nil")
	}
	if NewPostgresCheckLogRepo(nil) == nil {
		t.Error("NewPostgresCheckLogRepo should return non-nil")
	}
	if NewPostgresSettingsRepo(nil) == nil {
		t.Error("NewPostgresSettingsRepo should return non-nil")
	}
}

// TrackedPostモデルのフィールドが正しく構築されることを検証
func TestTrackedPost_ModelFields(t *testing.T) {
	now := time.Now()
	post := &model.TrackedPost{
		ID:             "post-id-1",
		ProjectID:      "project-id-1",
		ExternalID:     "1234567890",
		GroupIDs:       []string{"g1", "g2"},
		CheckType:      model.CheckTypeApproval,
		Status:         model.PostStatusChecking,
		IsActive:       true,
		CheckFrequency: "2_hour",
		LastCheckedAt:  &now,
	}

	if post.CheckType != model.CheckTypeApproval {
		t.Errorf("CheckType = %q, want %q", post.CheckType, model.CheckTypeApproval)
	}
	if len(post.GroupIDs) != 2 {
		t.Errorf("len(GroupIDs) = %d, want 2", len(post.GroupIDs))
	}
	if post.LastCheckedAt == nil || !post.LastCheckedAt.Equal(now) {
		t.Errorf("LastCheckedAt = %v, want %v", post.LastCheckedAt, now)
	}
}

// nullStringが空文字列と非空文字列を正しく変換することを検証
func TestNullString_Conversion(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Error("空文字列はValid=falseに変換されるべき")
	}
	if ns := nullString("value"); !ns.Valid || ns.String != "value" {
		t.Errorf("nullString(%q) = %+v, want Valid=true", "value", ns)
	}
}

// nullStringValueが無効値を空文字列に変換することを検証
func TestNullStringValue_Conversion(t *testing.T) {
	if v := nullStringValue(sql.NullString{}); v != "" {
		t.Errorf("無効なNullStringは空文字列を返すべき, got %q", v)
	}
	if v := nullStringValue(sql.NullString{String: "x", Valid: true}); v != "x" {
		t.Errorf("nullStringValue = %q, want %q", v, "x")
	}
}

// TaskStatusの終端判定を検証
func TestTaskStatus_IsTerminal(t *testing.T) {
	cases := []struct {
		status model.TaskStatus
		want   bool
	}{
		{model.TaskStatusPending, false},
		{model.TaskStatusRunning, false},
		{model.TaskStatusCompleted, true},
		{model.TaskStatusFailed, true},
	}
	for _, c := range cases {
		if got := c.status.IsTerminal(); got != c.want {
			t.Errorf("IsTerminal(%q) = %v, want %v", c.status, got, c.want)
		}
	}
}
