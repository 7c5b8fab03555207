package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/seedman/internal/model"
)

// PostgresKeywordRepo はPostgreSQLを使用したキーワードリポジトリ。
type PostgresKeywordRepo struct {
	db *sql.DB
}

// NewPostgresKeywordRepo はPostgresKeywordRepoを生成する。
func NewPostgresKeywordRepo(db *sql.DB) *PostgresKeywordRepo {
	return &PostgresKeywordRepo{db: db}
}

// ListByPost は指定対象のキーワード一覧を返す。
func (r *PostgresKeywordRepo) ListByPost(ctx context.Context, postID string) ([]*model.Keyword, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, content, status, created_at, updated_at
		 FROM keywords WHERE post_id = $1 ORDER BY created_at ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("キーワード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var keywords []*model.Keyword
	for rows.Next() {
		k := &model.Keyword{}
		if err := rows.Scan(&k.ID, &k.PostID, &k.Content, &k.Status, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("キーワードの読み出しに失敗しました: %w", err)
		}
		keywords = append(keywords, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("キーワード一覧の走査に失敗しました: %w", err)
	}
	return keywords, nil
}

// Create はキーワードを作成する。
func (r *PostgresKeywordRepo) Create(ctx context.Context, keyword *model.Keyword) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO keywords (id, post_id, content, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		keyword.ID, keyword.PostID, keyword.Content, keyword.Status,
		keyword.CreatedAt, keyword.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("キーワードの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus はキーワードの検出結果を更新する。
func (r *PostgresKeywordRepo) UpdateStatus(ctx context.Context, id string, status model.KeywordStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE keywords SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("キーワード状態の更新に失敗しました: %w", err)
	}
	return nil
}
