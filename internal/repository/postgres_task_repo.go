package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/seedman/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// taskColumns はタスク取得クエリで使用するカラムリスト。
const taskColumns = `id, project_id, status, progress_current, progress_total,
	error_message, created_at, updated_at`

// scanTask は1行をmodel.Taskに読み出す。
func scanTask(row *sql.Row) (*model.Task, error) {
	task := &model.Task{}
	var errorMessage sql.NullString

	err := row.Scan(
		&task.ID, &task.ProjectID, &task.Status,
		&task.ProgressCurrent, &task.ProgressTotal,
		&errorMessage, &task.CreatedAt, &task.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	task.ErrorMessage = nullStringValue(errorMessage)
	return task, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	return task, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, status, progress_current, progress_total,
		                    error_message, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.ProjectID, task.Status,
		task.ProgressCurrent, task.ProgressTotal,
		nullString(task.ErrorMessage), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// SelectNext は次に処理すべきタスクを返す。
// runningのタスクを優先し、なければ最も古いpendingのタスクを返す（FIFO）。
// 対象が存在しない場合はnilを返す。
func (r *PostgresTaskRepo) SelectNext(ctx context.Context) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = 'running'
		 ORDER BY created_at ASC LIMIT 1`,
	))
	if err != nil {
		return nil, fmt.Errorf("実行中タスクの取得に失敗しました: %w", err)
	}
	if task != nil {
		return task, nil
	}

	task, err = scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = 'pending'
		 ORDER BY created_at ASC LIMIT 1`,
	))
	if err != nil {
		return nil, fmt.Errorf("待機中タスクの取得に失敗しました: %w", err)
	}
	return task, nil
}

// MarkRunning はタスクをrunningに遷移させる。
func (r *PostgresTaskRepo) MarkRunning(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'running', updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("タスクのrunning遷移に失敗しました: %w", err)
	}
	return nil
}

// AdvanceProgress はprogress_currentを1進め、更新後のタスクを返す。
func (r *PostgresTaskRepo) AdvanceProgress(ctx context.Context, id string) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		`UPDATE tasks SET progress_current = progress_current + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING `+taskColumns,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("タスク進捗の更新に失敗しました: %w", err)
	}
	return task, nil
}

// MarkCompleted はタスクをcompletedに遷移させる。
func (r *PostgresTaskRepo) MarkCompleted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'completed', updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("タスクのcompleted遷移に失敗しました: %w", err)
	}
	return nil
}

// MarkFailed はタスクをfailedに遷移させ、エラーメッセージを記録する。
func (r *PostgresTaskRepo) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'failed', error_message = $2, updated_at = now()
		 WHERE id = $1`,
		id, nullString(errorMessage),
	)
	if err != nil {
		return fmt.Errorf("タスクのfailed遷移に失敗しました: %w", err)
	}
	return nil
}

// FailRunning は現在runningのタスクをすべてfailedに遷移させる。
func (r *PostgresTaskRepo) FailRunning(ctx context.Context, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'failed', error_message = $1, updated_at = now()
		 WHERE status = 'running'`,
		nullString(errorMessage),
	)
	if err != nil {
		return fmt.Errorf("実行中タスクのfailed遷移に失敗しました: %w", err)
	}
	return nil
}
