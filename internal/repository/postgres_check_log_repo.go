package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/seedman/internal/model"
)

// PostgresCheckLogRepo はPostgreSQLを使用した確認監査ログリポジトリ。
// ログは追記専用で、保持期間超過分の削除はcleanupワーカーが行う。
type PostgresCheckLogRepo struct {
	db *sql.DB
}

// NewPostgresCheckLogRepo はPostgresCheckLogRepoを生成する。
func NewPostgresCheckLogRepo(db *sql.DB) *PostgresCheckLogRepo {
	return &PostgresCheckLogRepo{db: db}
}

// Insert は確認ログを1行追記する。
func (r *PostgresCheckLogRepo) Insert(ctx context.Context, log *model.CheckLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO check_logs (id, post_id, check_type, status, request_url,
		                         raw_response, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.PostID, log.CheckType, log.Status,
		nullString(log.RequestURL), nullString(log.RawResponse),
		nullString(log.ErrorMessage), log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("確認ログの追記に失敗しました: %w", err)
	}
	return nil
}
